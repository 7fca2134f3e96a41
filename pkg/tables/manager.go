package tables

import (
	"fmt"
	"sync"

	"heapdb/pkg/primitives"
	"heapdb/pkg/storage"
	"heapdb/pkg/tuple"
)

// Table pairs a backing file with its catalog metadata.
type Table struct {
	File     storage.DbFile
	Name     string
	PKeyName string
}

// TableManager is the system catalog: it maps table ids and names to their
// backing files and schemas. The buffer pool and the statistics collector
// hold an explicit reference to it instead of going through process-global
// state.
type TableManager struct {
	mu       sync.RWMutex
	tables   map[primitives.TableID]*Table
	nameToID map[string]primitives.TableID
}

func NewTableManager() *TableManager {
	return &TableManager{
		tables:   make(map[primitives.TableID]*Table),
		nameToID: make(map[string]primitives.TableID),
	}
}

// AddTable registers a file under the given name. Re-adding a name or an
// id replaces the previous registration, matching the newest-wins
// convention for reloaded catalogs.
func (tm *TableManager) AddTable(file storage.DbFile, name string, pkeyName string) error {
	if file == nil {
		return fmt.Errorf("table file cannot be nil")
	}
	if name == "" {
		return fmt.Errorf("table name cannot be empty")
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()

	if oldID, exists := tm.nameToID[name]; exists {
		delete(tm.tables, oldID)
	}
	if old, exists := tm.tables[file.GetID()]; exists && old.Name != name {
		delete(tm.nameToID, old.Name)
	}
	tm.tables[file.GetID()] = &Table{File: file, Name: name, PKeyName: pkeyName}
	tm.nameToID[name] = file.GetID()
	return nil
}

// GetDbFile resolves a table id to its backing file.
func (tm *TableManager) GetDbFile(tableID primitives.TableID) (storage.DbFile, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	t, exists := tm.tables[tableID]
	if !exists {
		return nil, fmt.Errorf("table with ID %d not found", tableID)
	}
	return t.File, nil
}

// GetTupleDesc returns the schema of the table.
func (tm *TableManager) GetTupleDesc(tableID primitives.TableID) (*tuple.TupleDescription, error) {
	file, err := tm.GetDbFile(tableID)
	if err != nil {
		return nil, err
	}
	return file.GetTupleDesc(), nil
}

// GetTableName returns the registered name of the table.
func (tm *TableManager) GetTableName(tableID primitives.TableID) (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	t, exists := tm.tables[tableID]
	if !exists {
		return "", fmt.Errorf("table with ID %d not found", tableID)
	}
	return t.Name, nil
}

// GetTableID resolves a table name to its id.
func (tm *TableManager) GetTableID(name string) (primitives.TableID, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	id, exists := tm.nameToID[name]
	if !exists {
		return 0, fmt.Errorf("table %q not found", name)
	}
	return id, nil
}

// TableIDs returns the ids of every registered table.
func (tm *TableManager) TableIDs() []primitives.TableID {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	ids := make([]primitives.TableID, 0, len(tm.tables))
	for id := range tm.tables {
		ids = append(ids, id)
	}
	return ids
}
