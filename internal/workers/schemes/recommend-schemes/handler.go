// internal/workers/schemes/recommend-schemes/handler.go
package recommendschemes

import (
	"context"
	"encoding/json"
	"errors"

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
	TaskType = "recommend-schemes"
)

var (
	ErrNilInput = errors.New("input cannot be nil")

	schema = validation.MustCompile(inputSchema)
)

type Ranker interface {
	Rank(ctx context.Context, surface engine.Surface, req engine.Request) (*engine.Result, error)
}

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

	if res, err := schema.ValidateJSON(job.Variables); err != nil {
		h.errorHdl.HandleJobError(ctx, client, job, apperrors.NewInvalidJobVariablesError(err.Error()))
		return
	} else if !res.Valid {
		h.errorHdl.HandleJobError(ctx, client, job, apperrors.NewInvalidJobVariablesError(res.Summary()))
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

	res, err := h.ranker.Rank(ctx, h.config.Surface, engine.Request{
		Query: models.Query{
			Language: models.ParseLanguage(input.Language),
			Category: input.Category,
			Limit:    input.Limit,
			Offset:   input.Offset,
		},
		Profile: input.Profile,
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, err
	}

	recs := res.Results
	if h.config.MinEligibility > 0 {
		recs = recs[:0:0]
		for _, r := range res.Results {
			if r.EligibilityScore >= h.config.MinEligibility {
				recs = append(recs, r)
			}
		}
	}

	return &Output{
		Recommendations: recs,
		TotalCandidates: res.TotalCandidates,
		Personalized:    !res.Profile.IsEmpty(),
		Degraded:        res.Degraded,
		DegradedReason:  res.DegradedReason,
	}, nil
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
