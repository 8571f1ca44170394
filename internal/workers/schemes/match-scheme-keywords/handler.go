// internal/workers/schemes/match-scheme-keywords/handler.go
package matchschemekeywords

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "scheme-workers/internal/common/errors"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/common/metrics"
	"scheme-workers/internal/common/validation"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/engine"
)

const (
	TaskType = "match-scheme-keywords"
)

var (
	ErrNilInput = errors.New("input cannot be nil")

	schema = validation.MustCompile(inputSchema)
)

type Ranker interface {
	Rank(ctx context.Context, surface engine.Surface, req engine.Request) (*engine.Result, error)
}

// Handler answers chat and voice turns with keyword matches over the static catalog.
type Handler struct {
	config   *Config
	ranker   Ranker
	errorHdl *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, ranker Ranker, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		ranker:   ranker,
		errorHdl: apperrors.NewErrorHandler(l),
		logger:   l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	res, err := schema.ValidateJSON(job.Variables)
	if err != nil || !res.Valid {
		details := ""
		if err != nil {
			details = err.Error()
		} else {
			details = res.Summary()
		}
		h.errorHdl.HandleJobError(ctx, client, job, apperrors.NewInvalidJobVariablesError(details))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errorHdl.HandleJobError(ctx, client, job, apperrors.NewInvalidJobVariablesError(err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errorHdl.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	channel := input.Channel
	if channel == "" {
		channel = ChannelChat
	}

	res, err := h.ranker.Rank(ctx, h.config.Surface, engine.Request{
		Query: models.Query{
			RawText:  input.Message,
			Language: models.ParseLanguage(input.Language),
			Limit:    input.Limit,
		},
	})
	if err != nil {
		return nil, err
	}

	out := &Output{Channel: channel, Matches: make([]Match, 0, len(res.Results))}
	for _, r := range res.Results {
		out.Matches = append(out.Matches, Match{
			SchemeID: r.SchemeID,
			Title:    r.Text.Title,
			Category: r.Category,
			Benefits: r.Text.Benefits,
			Score:    r.RelevanceScore,
		})
	}
	out.Matched = len(out.Matches) > 0
	out.Reply = reply(out.Matches, channel)

	h.logger.Debug("keyword match", map[string]interface{}{
		"channel": channel,
		"matches": len(out.Matches),
	})
	return out, nil
}

// reply renders matches as one sentence; voice gets only the top title.
func reply(matches []Match, channel string) string {
	if len(matches) == 0 {
		return "No matching scheme was found. Try words like farmer, pension or scholarship."
	}
	if channel == ChannelVoice {
		return fmt.Sprintf("You may be interested in %s.", matches[0].Title)
	}
	titles := make([]string, len(matches))
	for i, m := range matches {
		titles[i] = m.Title
	}
	return fmt.Sprintf("Schemes that match your message: %s.", strings.Join(titles, ", "))
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
