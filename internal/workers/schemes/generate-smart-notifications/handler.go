// internal/workers/schemes/generate-smart-notifications/handler.go
package generatesmartnotifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"scheme-workers/internal/common/aws"
	apperrors "scheme-workers/internal/common/errors"
	"scheme-workers/internal/common/logger"
	"scheme-workers/internal/common/metrics"
	"scheme-workers/internal/common/validation"
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/engine"
)

const (
	TaskType = "generate-smart-notifications"

	ReasonDeadline   = "deadline"
	ReasonOccupation = "occupation"

	StatusGenerated = "generated"
	StatusSent      = "sent"
	StatusFailed    = "failed"

	ChannelSMS   = "sms"
	ChannelEmail = "email"
)

var (
	ErrNilInput = errors.New("input cannot be nil")

	schema = validation.MustCompile(inputSchema)
)

type Ranker interface {
	Rank(ctx context.Context, surface engine.Surface, req engine.Request) (*engine.Result, error)
}

// Notifier delivers a notification; aws.Messenger implements it.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) (string, error)
	SendSMS(ctx context.Context, phoneNumber, message string) (string, error)
}

type Handler struct {
	config   *Config
	ranker   Ranker
	notifier Notifier
	errorHdl *apperrors.ErrorHandler
	logger   logger.Logger
	now      func() time.Time
}

// NewHandler builds the handler. notifier may be nil, which disables dispatch.
func NewHandler(config *Config, ranker Ranker, notifier Notifier, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		ranker:   ranker,
		notifier: notifier,
		errorHdl: apperrors.NewErrorHandler(l),
		logger:   l,
		now:      time.Now,
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
			Limit:    input.Limit,
		},
		Profile: input.Profile,
		UserID:  input.UserID,
	})
	if err != nil {
		return nil, err
	}

	dispatch := h.config.Dispatch
	if input.Dispatch != nil {
		dispatch = *input.Dispatch
	}

	now := h.now().UTC()
	out := &Output{
		Notifications: make([]models.SchemeNotification, 0, len(res.Results)),
		Degraded:      res.Degraded,
	}
	for _, r := range res.Results {
		n := h.build(input.UserID, r, now)
		if n.Tier == models.TierHigh {
			out.HighCount++
		}
		if dispatch && h.notifier != nil {
			h.dispatch(ctx, &n, res.Profile)
			if n.Status == StatusSent {
				out.Dispatched++
			}
		}
		out.Notifications = append(out.Notifications, n)
	}

	h.logger.Info("notifications generated", map[string]interface{}{
		"userId":     input.UserID,
		"count":      len(out.Notifications),
		"high":       out.HighCount,
		"dispatched": out.Dispatched,
	})
	return out, nil
}

// Tier maps a composite score to a notification tier.
func (h *Handler) Tier(score float64) models.NotificationTier {
	switch {
	case score > h.config.HighThreshold:
		return models.TierHigh
	case score > h.config.MediumThreshold:
		return models.TierMedium
	default:
		return models.TierLow
	}
}

func (h *Handler) build(userID string, r models.ScoredResult, now time.Time) models.SchemeNotification {
	n := models.SchemeNotification{
		ID:          uuid.NewString(),
		UserID:      userID,
		SchemeID:    r.SchemeID,
		Title:       r.Text.Title,
		Tier:        h.Tier(r.CompositeScore),
		Score:       r.CompositeScore,
		Reason:      ReasonOccupation,
		Deadline:    r.Scheme.Deadline,
		Status:      StatusGenerated,
		GeneratedAt: now,
	}

	if d := r.Scheme.Deadline; d != nil && !d.Before(now) && d.Sub(now) <= h.config.DeadlineWindow {
		n.Reason = ReasonDeadline
		days := int(d.Sub(now).Hours() / 24)
		n.Message = fmt.Sprintf("%s closes in %d days (%s). Apply before the deadline.",
			r.Text.Title, days, d.Format("02 Jan 2006"))
	} else {
		n.Message = fmt.Sprintf("%s matches your profile. %s", r.Text.Title, r.Text.Benefits)
	}
	return n
}

func (h *Handler) dispatch(ctx context.Context, n *models.SchemeNotification, p *models.UserProfile) {
	if p == nil {
		return
	}

	var (
		id  string
		err error
	)
	switch {
	case n.Tier.AtLeast(h.config.SMSMinTier):
		if !h.config.SMSEnabled || p.Phone == "" {
			return
		}
		n.Channel = ChannelSMS
		id, err = h.notifier.SendSMS(ctx, p.Phone, n.Message)
	case n.Tier.AtLeast(models.TierMedium) && h.config.EmailEnabled && p.Email != "":
		n.Channel = ChannelEmail
		id, err = h.notifier.SendEmail(ctx, p.Email, "New scheme for you: "+n.Title, n.Message)
	default:
		return
	}

	switch {
	case errors.Is(err, aws.ErrEmailDisabled), errors.Is(err, aws.ErrSMSDisabled):
		n.Channel = ""
	case err != nil:
		n.Status = StatusFailed
		h.logger.Warn("notification dispatch failed", map[string]interface{}{
			"schemeId": n.SchemeID,
			"channel":  n.Channel,
			"error":    apperrors.NewNotificationSendFailedError(n.Channel, err).Error(),
		})
	default:
		n.Status = StatusSent
		n.MessageID = id
	}
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
