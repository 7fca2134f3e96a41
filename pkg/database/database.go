package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"heapdb/pkg/concurrency/lock"
	"heapdb/pkg/config"
	"heapdb/pkg/logging"
	"heapdb/pkg/memory"
	"heapdb/pkg/optimizer"
	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/storage/heap"
	"heapdb/pkg/tables"
	"heapdb/pkg/tuple"
)

// Database wires the engine together: the catalog, the buffer pool, the
// deadlock detector and the statistics registry, all constructed explicitly
// from one Config rather than living in package-level singletons.
type Database struct {
	cfg      config.Config
	logger   *logrus.Logger
	catalog  *tables.TableManager
	detector *lock.DeadlockDetector
	pool     *memory.BufferPool
	stats    *optimizer.StatsRegistry
}

// Open builds a database from the given configuration.
func Open(cfg config.Config) (*Database, error) {
	logger, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	storage.SetPageSize(cfg.PageSize)

	catalog := tables.NewTableManager()
	detector := lock.NewDeadlockDetector(cfg.DeadlockInterval, cfg.DeadlockThreshold, logger)
	pool := memory.NewBufferPool(cfg.PoolPages, catalog, detector, logger)

	return &Database{
		cfg:      cfg,
		logger:   logger,
		catalog:  catalog,
		detector: detector,
		pool:     pool,
		stats:    optimizer.NewStatsRegistry(),
	}, nil
}

// CreateTable opens (creating if needed) a heap file for the table under
// the data directory and registers it in the catalog.
func (db *Database) CreateTable(name string, td *tuple.TupleDescription, pkeyName string) (*heap.HeapFile, error) {
	path := primitives.Filepath(filepath.Join(db.cfg.DataDir, name+".dat"))

	file, err := heap.NewHeapFile(path, td, db.detector)
	if err != nil {
		return nil, err
	}
	file.BindPool(db.pool)

	if err := db.catalog.AddTable(file, name, pkeyName); err != nil {
		return nil, err
	}
	db.logger.WithFields(logrus.Fields{
		"table": name,
		"id":    file.GetID(),
	}).Info("table registered")
	return file, nil
}

func (db *Database) Catalog() *tables.TableManager {
	return db.catalog
}

func (db *Database) Pool() *memory.BufferPool {
	return db.pool
}

func (db *Database) Detector() *lock.DeadlockDetector {
	return db.detector
}

func (db *Database) Stats() *optimizer.StatsRegistry {
	return db.stats
}

func (db *Database) Logger() *logrus.Logger {
	return db.logger
}

// ComputeStatistics rebuilds the statistics of every registered table.
func (db *Database) ComputeStatistics() error {
	return db.stats.ComputeStatistics(db.catalog, db.pool)
}

// Close flushes the pool and stops the deadlock detector.
func (db *Database) Close() error {
	err := db.pool.FlushAllPages()
	db.detector.Stop()
	return err
}
