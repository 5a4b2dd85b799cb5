package pricing

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"neuroseven/app/config"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/do"
)

const maxResults = 10

// Filters is the structured form of "двушка до 10 млн от 40 кв.м.".
// Zero fields mean "no constraint".
type Filters struct {
	Rooms    int     `json:"rooms,omitempty"`
	AreaMin  float64 `json:"area_min,omitempty"`
	AreaMax  float64 `json:"area_max,omitempty"`
	PriceMin int64   `json:"price_min,omitempty"`
	PriceMax int64   `json:"price_max,omitempty"`
}

type Flat struct {
	Rooms      int     `json:"rooms"`
	Area       float64 `json:"area"`
	Price      int64   `json:"price"`
	Floor      int     `json:"floor"`
	Renovation string  `json:"renovation"`
}

var _ do.Shutdownable = (*Service)(nil)

// Service answers flat queries against the per-complex SQLite databases
// exported from the developer's sales system.
type Service struct {
	dir string

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	return NewAt(cfg.Pricing.Dir), nil
}

func NewAt(dir string) *Service {
	return &Service{
		dir: dir,
		dbs: make(map[string]*sql.DB),
	}
}

// Query returns up to maxResults flats of the complex matching the filters,
// cheapest first.
func (s *Service) Query(complexID string, f Filters) ([]Flat, error) {
	db, err := s.db(complexID)
	if err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if f.Rooms > 0 {
		where = append(where, "rooms = ?")
		args = append(args, f.Rooms)
	}
	if f.AreaMin > 0 {
		where = append(where, "area >= ?")
		args = append(args, f.AreaMin)
	}
	if f.AreaMax > 0 {
		where = append(where, "area <= ?")
		args = append(args, f.AreaMax)
	}
	if f.PriceMin > 0 {
		where = append(where, "price >= ?")
		args = append(args, f.PriceMin)
	}
	if f.PriceMax > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.PriceMax)
	}

	query := "SELECT rooms, area, price, floor, renovation FROM flats"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY price LIMIT %d", maxResults)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flats: %w", err)
	}
	defer rows.Close()

	var flats []Flat
	for rows.Next() {
		var flat Flat
		if err = rows.Scan(&flat.Rooms, &flat.Area, &flat.Price, &flat.Floor, &flat.Renovation); err != nil {
			return nil, fmt.Errorf("failed to scan flat: %w", err)
		}
		flats = append(flats, flat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read flats: %w", err)
	}

	return flats, nil
}

func (s *Service) db(complexID string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[complexID]; ok {
		return db, nil
	}

	db, err := sql.Open("sqlite3", filepath.Join(s.dir, complexID+".db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open pricing db for %s: %w", complexID, err)
	}

	s.dbs[complexID] = db
	return db, nil
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, db := range s.dbs {
		_ = db.Close()
	}
	s.dbs = make(map[string]*sql.DB)

	return nil
}
