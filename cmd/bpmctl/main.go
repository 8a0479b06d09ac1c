// Command bpmctl is a small demo/smoke-test binary exercising the buffer
// pool against a real mmap-backed disk file. It is not part of the
// buffer pool's public contract (spec.md §6: "no CLI, no environment
// variables" for the BPM itself) — it exists the way the teacher's own
// cmd/arraydb/main.go does, as a thin driver proving the library wires
// together end to end.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arran-oss/bufpool/internal/buffer"
	"github.com/arran-oss/bufpool/internal/disk"
	"github.com/arran-oss/bufpool/internal/logging"
	"github.com/arran-oss/bufpool/internal/page"
	"github.com/arran-oss/bufpool/internal/wal"
)

func main() {
	var (
		framesPerShard = flag.Int("frames", 16, "frames per shard")
		shards         = flag.Int("shards", 4, "number of buffer pool shards")
		dbPath         = flag.String("db", "", "backing file path (default: a temp file)")
		verbose        = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if err := run(*framesPerShard, *shards, *dbPath, *verbose); err != nil {
		log.Fatal(err)
	}
}

func run(framesPerShard, shards int, dbPath string, verbose bool) error {
	if dbPath == "" {
		f, err := os.CreateTemp("", "bpmctl-*.dat")
		if err != nil {
			return fmt.Errorf("create temp file: %w", err)
		}
		dbPath = f.Name()
		f.Close()
		defer os.Remove(dbPath)
	}

	level := "info"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{Level: level})
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	dm, err := disk.NewFileManager(dbPath, framesPerShard*shards)
	if err != nil {
		return fmt.Errorf("open disk manager: %w", err)
	}

	pool, err := buffer.NewParallel(framesPerShard, shards, func(int) disk.Manager { return dm },
		buffer.WithLogger(logger), buffer.WithLogManager(wal.NoopManager{}))
	if err != nil {
		return fmt.Errorf("construct pool: %w", err)
	}
	defer pool.Close()

	fmt.Printf("pool size: %d frames across %d shards\n", pool.PoolSize(), shards)

	var allocated []page.ID
	for i := 0; i < framesPerShard*shards; i++ {
		id, fr, err := pool.NewPage()
		if err != nil {
			fmt.Printf("new_page failed after %d pages: %v\n", i, err)
			break
		}
		fr.WLatch()
		copy(fr.Data(), fmt.Sprintf("page %d", id))
		fr.WUnlock()
		pool.UnpinPage(id, true)
		allocated = append(allocated, id)
	}
	fmt.Printf("allocated %d pages\n", len(allocated))

	if len(allocated) > 0 {
		first := allocated[0]
		fr, err := pool.FetchPage(first)
		if err != nil {
			return fmt.Errorf("fetch first page: %w", err)
		}
		fr.RLatch()
		fmt.Printf("page %d contents: %q\n", first, fr.Data()[:16])
		fr.RUnlock()
		pool.UnpinPage(first, false)
	}

	if err := pool.FlushAllPages(); err != nil {
		return fmt.Errorf("flush all: %w", err)
	}

	return nil
}
