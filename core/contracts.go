package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Metadata             map[string]any
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// RequestSigner decorates an outbound registry request with credentials.
type RequestSigner interface {
	Sign(ctx context.Context, req *TransportRequest) error
}

type MetadataRegistry interface {
	Get(ctx context.Context, doi string) ([]byte, error)
	Upsert(ctx context.Context, in MetadataInput) (MetadataUpsertResult, error)
	Delete(ctx context.Context, doi string) error
}

type DOIRegistry interface {
	Get(ctx context.Context, doi string) (string, error)
	List(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, doi string, url string) error
}

type MediaRegistry interface {
	Get(ctx context.Context, doi string) ([]MediaEntry, error)
	Upsert(ctx context.Context, doi string, entries []MediaEntry) error
}

// IdentifierStore persists package identifiers. Create must enforce
// identifier uniqueness at write time and report a lost race as
// ErrIdentifierConflict.
type IdentifierStore interface {
	Create(ctx context.Context, in CreateIdentifierInput) (IdentifierRecord, error)
	ExistsByIdentifier(ctx context.Context, identifier string) (bool, error)
	GetByPackageID(ctx context.Context, packageID string) (IdentifierRecord, error)
	GetByIdentifier(ctx context.Context, identifier string) (IdentifierRecord, error)
}

// RandomSource returns a uniform integer in [0, n).
type RandomSource interface {
	IntN(n int) int
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// DOIService is the full set of operations exposed by Service. Command and
// query handlers depend on narrower slices of it.
type DOIService interface {
	Mint(ctx context.Context, packageID string) (IdentifierRecord, error)
	EnsureIdentifier(ctx context.Context, packageID string) (IdentifierRecord, error)
	GetIdentifier(ctx context.Context, packageID string) (IdentifierRecord, error)
	UpsertMetadata(ctx context.Context, in MetadataInput) (MetadataUpsertResult, error)
	GetMetadata(ctx context.Context, doi string) ([]byte, error)
	DeleteMetadata(ctx context.Context, doi string) error
	GetDOI(ctx context.Context, doi string) (string, error)
	ListDOIs(ctx context.Context) ([]string, error)
	RegisterDOI(ctx context.Context, doi string, url string) error
	GetMedia(ctx context.Context, doi string) ([]MediaEntry, error)
	UpsertMedia(ctx context.Context, doi string, entries []MediaEntry) error
	Publish(ctx context.Context, req PublishRequest) (PublishResult, error)
	EnqueuePublish(ctx context.Context, req PublishJobRequest) error
	HandleJob(ctx context.Context, delivery JobDelivery) error
}
