package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/haatos/simple-deploy/internal/store"
)

type DeploymentRunner interface {
	Run(ctx context.Context, deployment *store.Deployment) error
}

type QueueDeploymentStore interface {
	ReadDeploymentByID(context.Context, int64) (*store.Deployment, error)
	ListPendingDeployments(context.Context) ([]store.PendingDeployment, error)
}

type DeploymentTask struct {
	DeploymentID int64
	PipelineID   int64
}

type QueueStatus struct {
	PendingCount int `json:"pending_count"`
	RunningCount int `json:"running_count"`
}

// ExecutionQueue admits each deployment exactly once, recovers unfinished
// work at startup and drains the backlog with a single consumer goroutine.
// The single consumer is also what guarantees that two deployments can never
// race on the same project directory.
type ExecutionQueue struct {
	deploymentStore QueueDeploymentStore
	runner          DeploymentRunner

	tasks     chan DeploymentTask
	done      chan struct{}
	taskDelay time.Duration

	mu       sync.Mutex
	inFlight map[int64]struct{}

	scheduler gocron.Scheduler
	pollJob   gocron.Job
}

func NewExecutionQueue(
	deploymentStore QueueDeploymentStore,
	runner DeploymentRunner,
	queueSize int64,
	taskDelay time.Duration,
) *ExecutionQueue {
	return &ExecutionQueue{
		deploymentStore: deploymentStore,
		runner:          runner,
		tasks:           make(chan DeploymentTask, queueSize),
		done:            make(chan struct{}),
		taskDelay:       taskDelay,
		inFlight:        make(map[int64]struct{}),
	}
}

// Initialize recovers deployments left pending by a previous process. It is
// idempotent: AddTask drops anything already in flight.
func (q *ExecutionQueue) Initialize(ctx context.Context) error {
	pending, err := q.deploymentStore.ListPendingDeployments(ctx)
	if err != nil {
		return err
	}
	log.Printf("recovering %d pending deployments\n", len(pending))
	for _, p := range pending {
		if err := q.AddTask(p.DeploymentID, p.DeploymentPipelineID); err != nil {
			log.Printf("err queuing recovered deployment %d: %+v\n", p.DeploymentID, err)
		}
	}
	return nil
}

// SchedulePolling registers the periodic re-check of the deployments table.
// The poll picks up rows inserted outside AddTask and re-admits anything
// that was somehow dropped; it only ever enqueues, never runs.
func (q *ExecutionQueue) SchedulePolling(s gocron.Scheduler, interval time.Duration) {
	q.scheduler = s
	j, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			q.checkPendingDeployments(context.Background())
		}),
	)
	if err != nil {
		log.Fatal(err)
	}
	q.pollJob = j
}

func (q *ExecutionQueue) StopPolling() {
	if q.scheduler != nil && q.pollJob != nil {
		if err := q.scheduler.RemoveJob(q.pollJob.ID()); err != nil {
			log.Println("err removing poll job:", err)
		}
		q.pollJob = nil
	}
}

func (q *ExecutionQueue) checkPendingDeployments(ctx context.Context) {
	pending, err := q.deploymentStore.ListPendingDeployments(ctx)
	if err != nil {
		log.Println("err checking pending deployments:", err)
		return
	}
	for _, p := range pending {
		if q.isInFlight(p.DeploymentID) {
			continue
		}
		if err := q.AddTask(p.DeploymentID, p.DeploymentPipelineID); err != nil {
			log.Printf("err queuing polled deployment %d: %+v\n", p.DeploymentID, err)
		}
	}
}

// AddTask admits a deployment for execution. A deployment that is already
// queued or running is dropped, not re-ordered and not duplicated.
func (q *ExecutionQueue) AddTask(deploymentID, pipelineID int64) error {
	q.mu.Lock()
	if _, ok := q.inFlight[deploymentID]; ok {
		q.mu.Unlock()
		log.Printf("deployment %d is already queued or running\n", deploymentID)
		return nil
	}
	q.inFlight[deploymentID] = struct{}{}
	q.mu.Unlock()

	select {
	case q.tasks <- DeploymentTask{DeploymentID: deploymentID, PipelineID: pipelineID}:
		return nil
	default:
		q.removeInFlight(deploymentID)
		return NewErrDeployQueueFull()
	}
}

// Run drains the queue. Exactly one instance runs per process; it is the
// single consumer that makes concurrent pipeline execution structurally
// impossible.
func (q *ExecutionQueue) Run() {
	for {
		select {
		case task := <-q.tasks:
			q.process(task)
			time.Sleep(q.taskDelay)
		case <-q.done:
			return
		}
	}
}

func (q *ExecutionQueue) process(task DeploymentTask) {
	// released in all outcomes so a later external retry can re-admit the id
	defer q.removeInFlight(task.DeploymentID)

	d, err := q.deploymentStore.ReadDeploymentByID(context.Background(), task.DeploymentID)
	if err != nil {
		log.Printf("err reading deployment %d: %+v\n", task.DeploymentID, err)
		return
	}
	if err := q.runner.Run(context.Background(), d); err != nil {
		log.Printf("err processing deployment %d: %+v\n", task.DeploymentID, err)
	}
}

func (q *ExecutionQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}

func (q *ExecutionQueue) GetQueueStatus() QueueStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStatus{
		PendingCount: len(q.tasks),
		RunningCount: len(q.inFlight),
	}
}

func (q *ExecutionQueue) isInFlight(deploymentID int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inFlight[deploymentID]
	return ok
}

func (q *ExecutionQueue) removeInFlight(deploymentID int64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inFlight, deploymentID)
}
