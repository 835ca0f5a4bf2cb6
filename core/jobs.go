package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	JobIDPublish      = "datacite.publish"
	JobScriptPublish  = "datacite/publish"
	JobDedupDrop      = "drop"
	defaultRetryDelay = 30 * time.Second
)

// PublishJobRequest queues a Publish for background execution. When the
// metadata carries no identifier, PackageID is used to resolve or mint one
// before publishing.
type PublishJobRequest struct {
	PackageID string
	Publish   PublishRequest
}

func (r PublishJobRequest) Validate() error {
	if strings.TrimSpace(r.Publish.Metadata.Identifier) == "" && strings.TrimSpace(r.PackageID) == "" {
		return fmt.Errorf("core: identifier or package id is required")
	}
	if strings.TrimSpace(r.Publish.URL) == "" {
		return fmt.Errorf("core: landing page url is required")
	}
	return nil
}

func (s *Service) EnqueuePublish(ctx context.Context, req PublishJobRequest) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"package_id": req.PackageID,
		"identifier": req.Publish.Metadata.Identifier,
	}
	defer func() {
		s.observeOperation(ctx, startedAt, "enqueue_publish", err, fields)
	}()

	if s == nil || s.jobEnqueuer == nil {
		return s.mapError(fmt.Errorf("core: job enqueuer is required"))
	}
	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return err
	}
	msg := publishJobMessage(req)
	fields["idempotency_key"] = msg.IdempotencyKey
	if err = s.jobEnqueuer.Enqueue(ctx, msg); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

// HandleJob runs one delivered publish job and settles the delivery. Bad
// input is dead-lettered; anything else is requeued with a delay.
func (s *Service) HandleJob(ctx context.Context, delivery JobDelivery) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer func() {
		s.observeOperation(ctx, startedAt, "handle_job", err, fields)
	}()

	if delivery == nil {
		return s.mapError(fmt.Errorf("core: job delivery is required"))
	}
	msg := delivery.Message()
	if msg == nil {
		err = s.mapError(fmt.Errorf("core: job message is required"))
		if nackErr := delivery.Nack(ctx, JobNackOptions{DeadLetter: true, Reason: err.Error()}); nackErr != nil {
			err = errors.Join(err, nackErr)
		}
		return err
	}
	fields["job_id"] = msg.JobID
	fields["idempotency_key"] = msg.IdempotencyKey

	if msg.JobID != JobIDPublish {
		err = s.mapError(fmt.Errorf("core: job id %q is invalid", msg.JobID))
		if nackErr := delivery.Nack(ctx, JobNackOptions{DeadLetter: true, Reason: err.Error()}); nackErr != nil {
			err = errors.Join(err, nackErr)
		}
		return err
	}

	req := publishJobRequestFromParameters(msg.Parameters)
	fields["package_id"] = req.PackageID
	if _, runErr := s.runPublishJob(ctx, req); runErr != nil {
		err = runErr
		nackOpts := JobNackOptions{Requeue: true, Delay: defaultRetryDelay, Reason: err.Error()}
		if isPermanentJobError(err) {
			nackOpts = JobNackOptions{DeadLetter: true, Reason: err.Error()}
		}
		if nackErr := delivery.Nack(ctx, nackOpts); nackErr != nil {
			err = errors.Join(err, nackErr)
		}
		return err
	}
	if err = delivery.Ack(ctx); err != nil {
		err = s.mapError(err)
		return err
	}
	return nil
}

func (s *Service) runPublishJob(ctx context.Context, req PublishJobRequest) (PublishResult, error) {
	if err := req.Validate(); err != nil {
		return PublishResult{}, s.mapError(err)
	}
	publish := req.Publish
	if strings.TrimSpace(publish.Metadata.Identifier) == "" {
		record, err := s.EnsureIdentifier(ctx, req.PackageID)
		if err != nil {
			return PublishResult{}, err
		}
		publish.Metadata.Identifier = record.Identifier
	}
	return s.Publish(ctx, publish)
}

func isPermanentJobError(err error) bool {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	switch rich.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation, goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return true
	}
	return rich.TextCode == ErrorTextPackageIdentified || rich.TextCode == ErrorTextSpaceExhausted
}

func publishJobMessage(req PublishJobRequest) *JobExecutionMessage {
	key := strings.TrimSpace(req.Publish.Metadata.Identifier)
	if key == "" {
		key = "package:" + strings.TrimSpace(req.PackageID)
	}
	meta := req.Publish.Metadata
	return &JobExecutionMessage{
		JobID:      JobIDPublish,
		ScriptPath: JobScriptPublish,
		Parameters: map[string]any{
			"package_id":       strings.TrimSpace(req.PackageID),
			"url":              strings.TrimSpace(req.Publish.URL),
			"identifier":       strings.TrimSpace(meta.Identifier),
			"title":            meta.Title,
			"creators":         NormalizeCreators(meta.Creators...),
			"publisher":        meta.Publisher,
			"publication_year": meta.PublicationYear,
			"subjects":         append([]string(nil), meta.Options.Subjects...),
			"description":      meta.Options.Description,
			"size":             meta.Options.Size,
			"format":           meta.Options.Format,
			"version":          meta.Options.Version,
			"rights":           meta.Options.Rights,
			"resource_type":    meta.Options.ResourceType,
			"language":         meta.Options.Language,
			"geo_point":        meta.Options.GeoPoint,
			"geo_box":          meta.Options.GeoBox,
		},
		IdempotencyKey: JobIDPublish + ":" + key,
		DedupPolicy:    JobDedupDrop,
	}
}

func publishJobRequestFromParameters(params map[string]any) PublishJobRequest {
	return PublishJobRequest{
		PackageID: stringParam(params, "package_id"),
		Publish: PublishRequest{
			URL: stringParam(params, "url"),
			Metadata: MetadataInput{
				Identifier:      stringParam(params, "identifier"),
				Title:           stringParam(params, "title"),
				Creators:        stringsParam(params, "creators"),
				Publisher:       stringParam(params, "publisher"),
				PublicationYear: stringParam(params, "publication_year"),
				Options: MetadataOptions{
					Subjects:     stringsParam(params, "subjects"),
					Description:  stringParam(params, "description"),
					Size:         stringParam(params, "size"),
					Format:       stringParam(params, "format"),
					Version:      stringParam(params, "version"),
					Rights:       stringParam(params, "rights"),
					ResourceType: stringParam(params, "resource_type"),
					Language:     stringParam(params, "language"),
					GeoPoint:     stringParam(params, "geo_point"),
					GeoBox:       stringParam(params, "geo_box"),
				},
			},
		},
	}
}

func stringParam(params map[string]any, key string) string {
	switch value := params[key].(type) {
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}

// stringsParam accepts []string, []any (after a JSON round trip through the
// queue) or a single string.
func stringsParam(params map[string]any, key string) []string {
	switch value := params[key].(type) {
	case []string:
		return append([]string(nil), value...)
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	case string:
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return []string{value}
	default:
		return nil
	}
}

// JobHook reports worker lifecycle events through the service logger and
// metrics recorder.
func (s *Service) JobHook() JobWorkerHook {
	return serviceJobHook{service: s}
}

type serviceJobHook struct {
	service *Service
}

func (h serviceJobHook) OnStart(ctx context.Context, event JobWorkerEvent) {
	h.report(ctx, "started", event)
}

func (h serviceJobHook) OnSuccess(ctx context.Context, event JobWorkerEvent) {
	h.report(ctx, "succeeded", event)
}

func (h serviceJobHook) OnFailure(ctx context.Context, event JobWorkerEvent) {
	h.report(ctx, "failed", event)
}

func (h serviceJobHook) OnRetry(ctx context.Context, event JobWorkerEvent) {
	h.report(ctx, "retried", event)
}

func (h serviceJobHook) report(ctx context.Context, stage string, event JobWorkerEvent) {
	if h.service == nil {
		return
	}
	fields := map[string]any{
		"stage":   stage,
		"attempt": event.Attempt,
	}
	jobID := "unknown"
	if event.Message != nil {
		jobID = event.Message.JobID
		fields["job_id"] = event.Message.JobID
		fields["idempotency_key"] = event.Message.IdempotencyKey
	}
	if event.Delay > 0 {
		fields["delay_ms"] = event.Delay.Milliseconds()
	}
	if event.Duration > 0 {
		fields["duration_ms"] = event.Duration.Milliseconds()
	}
	h.service.recordCounter(ctx, "datacite.job."+stage, 1, map[string]string{"job_id": jobID})
	if event.Err != nil {
		fields["error"] = event.Err.Error()
		h.service.logError(ctx, "job "+stage, fields)
		return
	}
	h.service.logInfo(ctx, "job "+stage, fields)
}
