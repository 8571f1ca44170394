// internal/workers/schemes/check-scheme-eligibility/handler.go
package checkschemeeligibility

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "scheme-workers/internal/common/errors"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/common/metrics"
	"scheme-workers/internal/common/validation"
	"scheme-workers/internal/corpus"
	"scheme-workers/internal/models"
	"scheme-workers/internal/profile"
	"scheme-workers/internal/ranking/eligibility"
)

const (
	TaskType = "check-scheme-eligibility"
)

var (
	ErrNilInput = errors.New("input cannot be nil")

	schema = validation.MustCompile(inputSchema)
)

// SchemeLookup is the corpus operation this worker needs.
type SchemeLookup interface {
	FetchByID(ctx context.Context, id string) (*models.SchemeRecord, error)
}

// Handler runs the hard eligibility check for one application.
type Handler struct {
	config   *Config
	schemes  SchemeLookup
	profiles profile.Source
	errorHdl *apperrors.ErrorHandler
	logger   logger.Logger
}

// NewHandler builds the handler. profiles may be nil when only document fields are checked.
func NewHandler(config *Config, schemes SchemeLookup, profiles profile.Source, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		schemes:  schemes,
		profiles: profiles,
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
	start := time.Now()

	scheme, err := h.schemes.FetchByID(ctx, input.SchemeID)
	if errors.Is(err, corpus.ErrSchemeNotFound) {
		return nil, apperrors.NewSchemeNotFoundError(input.SchemeID)
	}
	if err != nil {
		return nil, apperrors.NewEligibilityCheckFailedError(err)
	}

	rules, err := eligibility.ParseRules(scheme.EligibilityRules)
	if err != nil {
		return nil, apperrors.NewInternalScoringError(scheme.ID, err)
	}

	prof := input.Profile
	if input.UserID != "" && h.profiles != nil {
		stored, err := h.profiles.FetchProfile(ctx, input.UserID)
		if err != nil {
			h.logger.Warn("profile fetch failed, checking submitted data only", map[string]interface{}{
				"userId": input.UserID,
				"error":  err.Error(),
			})
		} else {
			prof = stored.Merge(input.Profile)
		}
	}

	applicant := eligibility.ApplicantFromProfile(prof)
	fromDocs, unreadable := eligibility.ApplicantFromFields(input.Fields)
	applicant = applicant.Overlay(fromDocs)
	if input.LoanAmount != nil {
		applicant.LoanAmount = input.LoanAmount
	}
	sort.Strings(unreadable)

	report := eligibility.Validate(rules, applicant)

	h.logger.Info("eligibility checked", map[string]interface{}{
		"schemeId":   scheme.ID,
		"eligible":   report.Eligible,
		"missing":    len(report.Missing),
		"failed":     len(report.Failed),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Output{
		SchemeID:         scheme.ID,
		SchemeTitle:      scheme.TextFor(models.LanguageDefault).Title,
		Eligible:         report.Eligible,
		Results:          report.Results,
		Missing:          nonNil(report.Missing),
		Failed:           nonNil(report.Failed),
		UnreadableFields: unreadable,
		FitScore:         eligibility.Score(rules, applicantProfile(applicant)),
	}, nil
}

// applicantProfile lets the soft scorer read the merged applicant data.
func applicantProfile(a eligibility.Applicant) *models.UserProfile {
	return &models.UserProfile{
		Age:          a.Age,
		Gender:       a.Gender,
		Occupation:   a.Occupation,
		AnnualIncome: a.AnnualIncome,
		LocationType: a.LocationType,
		FamilySize:   a.FamilySize,
		Landholding:  a.Landholding,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
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
