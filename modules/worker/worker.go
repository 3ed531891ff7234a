// Package worker owns the run queue: the HTTP handlers that enqueue and
// cancel runs, and the BRPop loop that executes them.
package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"affiliate-video-server/modules/common/config"
	"affiliate-video-server/modules/common/credential"
	"affiliate-video-server/modules/common/database"
	"affiliate-video-server/modules/common/gemini"
	"affiliate-video-server/modules/common/model"
	redisutil "affiliate-video-server/modules/common/redis"
	"affiliate-video-server/modules/concepts"
	"affiliate-video-server/modules/generate"
	goredis "github.com/redis/go-redis/v9"
)

// Deps are the shared clients the worker needs. Manager and Events are
// shared with the HTTP layer so handlers see the runs the worker starts.
type Deps struct {
	Config  *config.Config
	RDB     *goredis.Client
	DB      *database.Client
	Gemini  *gemini.Client
	Creds   *credential.Store
	Manager *generate.Manager
	Events  generate.EventSink
}

// StartWorker blocks on the run queue and launches one goroutine per
// dequeued run. Meant to run as `go worker.StartWorker(deps)`.
func StartWorker(deps Deps) {
	log.Println("🔄 Run queue worker starting...")
	log.Printf("👀 Watching queue: %s", redisutil.RunQueueKey)

	ctx := context.Background()

	for {
		result, err := deps.RDB.BRPop(ctx, 0, redisutil.RunQueueKey).Result()
		if err != nil {
			log.Printf("❌ Redis BRPOP error: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}

		// result[0] is the queue name, result[1] the run ID.
		runID := result[1]
		log.Printf("🎯 Received run: %s", runID)

		go processRun(ctx, deps, runID)
	}
}

// processRun loads the run's snapshot and slots, builds its engine and
// executes the sequential loop.
func processRun(ctx context.Context, deps Deps, runID string) {
	log.Printf("🚀 Processing run: %s", runID)

	// A stale cancel flag from an earlier attempt must not kill this one.
	redisutil.ClearRunCancelled(ctx, deps.RDB, runID)

	run, err := deps.DB.FetchRun(runID)
	if err != nil {
		log.Printf("❌ Failed to fetch run %s: %v", runID, err)
		return
	}
	if run.RunStatus != model.StatusPending {
		log.Printf("⚠️  Run %s is %s, skipping", runID, run.RunStatus)
		return
	}

	input, err := decodeRunInput(run.RunInputData)
	if err != nil {
		log.Printf("❌ Run %s has unreadable input data: %v", runID, err)
		deps.DB.UpdateRunStatus(ctx, runID, model.StatusFailed, "unreadable run input data")
		return
	}

	results, err := deps.DB.FetchResults(runID)
	if err != nil || len(results) == 0 {
		log.Printf("❌ Failed to fetch result slots for run %s: %v", runID, err)
		deps.DB.UpdateRunStatus(ctx, runID, model.StatusFailed, "result slots missing")
		return
	}
	slotIDs := make([]string, len(results))
	for i, res := range results {
		slotIDs[i] = res.ResultID
	}

	service := generate.NewService(deps.Gemini, deps.DB, deps.RDB, deps.Creds)
	if service == nil {
		log.Printf("❌ Failed to initialize generation service for run %s", runID)
		return
	}

	var source concepts.Source
	if deps.Config.UseStaticConcepts {
		source = concepts.NewStaticSource()
	} else {
		source = concepts.NewDirectorSource(deps.Gemini)
	}

	engine := generate.NewEngine(generate.EngineConfig{
		RunID:               runID,
		Input:               input,
		SlotIDs:             slotIDs,
		Concepts:            source,
		Images:              service,
		Cancel:              service,
		Events:              deps.Events,
		Recorder:            service,
		Credentials:         service,
		InterCallDelay:      time.Duration(deps.Config.InterCallDelayMS) * time.Millisecond,
		CallTimeout:         time.Duration(deps.Config.GenerationTimeout()) * time.Second,
		DefaultAnchorPolicy: deps.Config.AnchorPolicy,
	})
	deps.Manager.Register(runID, engine)

	if err := engine.Run(ctx); err != nil {
		log.Printf("❌ Run %s finished with error: %v", runID, err)
		return
	}
	log.Printf("✅ Run %s processing completed", runID)
}

// decodeRunInput converts the JSONB snapshot back into the typed input.
func decodeRunInput(data map[string]interface{}) (*model.RunInput, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var input model.RunInput
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, err
	}
	return &input, nil
}
