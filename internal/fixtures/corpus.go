package fixtures

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	_ "modernc.org/sqlite"
)

// defaultCorpusPath is where GetCorpus stores the regression corpus
// when the caller does not need an isolated database, mirroring the
// teacher's fixed migsug_cache.db path.
const defaultCorpusPath = "migplan_corpus.db"

// Corpus is a SQLite-backed store of interesting soak-test scenarios
// (timeouts or invariant failures), keyed by a content hash of the
// scenario so a failure can be replayed deterministically later
// without regenerating random input. Adapted from a disk-backed cache
// pattern: a singleton *sql.DB behind sync.Once, retargeted from
// VM-disk caching to scenario-replay caching.
type Corpus struct {
	db *sql.DB
	mu sync.Mutex
}

var (
	corpusInstance *Corpus
	corpusOnce     sync.Once
	corpusErr      error
)

// GetCorpus returns the singleton regression corpus backed by
// defaultCorpusPath, opening and migrating it on first use.
func GetCorpus() (*Corpus, error) {
	corpusOnce.Do(func() {
		corpusInstance, corpusErr = OpenCorpus(defaultCorpusPath)
	})
	return corpusInstance, corpusErr
}

// OpenCorpus opens (creating if necessary) a regression corpus at
// path. Tests that need isolation from the process-wide singleton
// should call this directly with a temporary path instead of
// GetCorpus.
func OpenCorpus(path string) (*Corpus, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: opening corpus database: %w", err)
	}
	c := &Corpus{db: db}
	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("fixtures: initializing corpus schema: %w", err)
	}
	log.Printf("regression corpus opened at %s", path)
	return c, nil
}

func (c *Corpus) initSchema() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS soak_runs (
			hash TEXT PRIMARY KEY,
			scenario_yaml TEXT NOT NULL,
			outcome TEXT NOT NULL,
			dump TEXT NOT NULL,
			recorded_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, err = c.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_soak_runs_recorded
		ON soak_runs(recorded_at)
	`)
	return err
}

// ScenarioHash returns the content hash used as the corpus primary
// key: the SHA-256 of the scenario's YAML encoding.
func ScenarioHash(s *Scenario) (string, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("fixtures: hashing scenario: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Record persists a soak-test scenario and its outcome, replacing any
// existing entry under the same hash.
func (c *Corpus) Record(s *Scenario, outcome, dump string) error {
	hash, err := ScenarioHash(s)
	if err != nil {
		return err
	}
	scenarioYAML, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("fixtures: marshaling scenario: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec(`
		INSERT OR REPLACE INTO soak_runs (hash, scenario_yaml, outcome, dump, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`, hash, string(scenarioYAML), outcome, dump, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("fixtures: recording scenario %s: %w", hash, err)
	}
	return nil
}

// Lookup retrieves a previously recorded scenario by hash.
func (c *Corpus) Lookup(hash string) (scenario *Scenario, outcome, dump string, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var scenarioYAML string
	row := c.db.QueryRow(`
		SELECT scenario_yaml, outcome, dump FROM soak_runs WHERE hash = ?
	`, hash)
	if err := row.Scan(&scenarioYAML, &outcome, &dump); err != nil {
		if err == sql.ErrNoRows {
			return nil, "", "", false, nil
		}
		return nil, "", "", false, fmt.Errorf("fixtures: looking up %s: %w", hash, err)
	}

	var s Scenario
	if err := yaml.Unmarshal([]byte(scenarioYAML), &s); err != nil {
		return nil, "", "", false, fmt.Errorf("fixtures: unmarshaling recorded scenario %s: %w", hash, err)
	}
	return &s, outcome, dump, true, nil
}

// Count returns the number of recorded scenarios.
func (c *Corpus) Count() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM soak_runs`).Scan(&n)
	return n, err
}

// Close releases the underlying database handle.
func (c *Corpus) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
