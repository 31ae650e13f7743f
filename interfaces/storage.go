package interfaces

import "time"

// MarketCache persists fetched market data on the local filesystem so
// repeated runs can skip the network while the data is still fresh.
type MarketCache interface {
	// SaveJSON writes the value under the key, replacing any prior copy.
	SaveJSON(key string, value interface{}) error

	// LoadJSON reads the value stored under the key into out and
	// returns when it was written. A missing key returns os.ErrNotExist.
	LoadJSON(key string, out interface{}) (time.Time, error)

	// SaveCSV writes a CSV table under the name and returns its path.
	SaveCSV(name string, header []string, rows [][]string) (string, error)
}
