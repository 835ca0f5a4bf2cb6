package gojob

import (
	"github.com/goliatone/go-datacite/core"

	"github.com/goliatone/go-job/queue/worker"
)

var (
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
	_ worker.Hook      = (*WorkerHookAdapter)(nil)
	_ JobHandler       = (*core.Service)(nil)
)
