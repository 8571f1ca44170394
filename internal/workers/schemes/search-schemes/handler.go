// internal/workers/schemes/search-schemes/handler.go
package searchschemes

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
	TaskType = "search-schemes"
)

var (
	ErrNilInput = errors.New("input cannot be nil")

	schema = validation.MustCompile(inputSchema)
)

// Ranker is the engine operation this worker needs.
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

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHdl.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHdl.HandleJobError(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	res, err := schema.ValidateJSON(variables)
	if err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewInvalidJobVariablesError(res.Summary())
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, apperrors.NewInvalidJobVariablesError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	res, err := h.ranker.Rank(ctx, h.config.Surface, engine.Request{
		Query: models.Query{
			RawText:  input.Query,
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

	return &Output{
		Results:          res.Results,
		Suggestions:      res.Suggestions,
		TotalCandidates:  res.TotalCandidates,
		DetectedCategory: res.CategoryHint,
		Degraded:         res.Degraded,
		DegradedReason:   res.DegradedReason,
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
