package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
)

// CelesTrak GP endpoints queried for real orbital objects.
var celestrakURLs = map[string]string{
	"debris": "https://celestrak.org/NORAD/elements/gp.php?GROUP=debris&FORMAT=json",
	"active": "https://celestrak.org/NORAD/elements/gp.php?GROUP=active&FORMAT=json",
}

// DebrisObject is real space-debris metadata attached to asteroids. The
// simulation treats it as an opaque payload: it is copied and propagated on
// splits, never interpreted.
type DebrisObject struct {
	NoradID    string `json:"norad_id"`
	Name       string `json:"name"`
	ObjectType string `json:"object_type"` // DEBRIS, PAYLOAD, ROCKET BODY, ...
	Country    string `json:"country"`
	LaunchDate string `json:"launch_date"` // YYYY-MM-DD
}

// gpRecord is one object in CelesTrak's GP JSON response.
type gpRecord struct {
	NoradCatID json.Number `json:"NORAD_CAT_ID"`
	ObjectName string      `json:"OBJECT_NAME"`
	ObjectType string      `json:"OBJECT_TYPE"`
	Country    string      `json:"COUNTRY"`
	LaunchDate string      `json:"LAUNCH_DATE"`
}

// DebrisFetcher loads and caches the CelesTrak catalog, with deterministic
// mock data for offline use.
type DebrisFetcher struct {
	objects []DebrisObject
	byNorad map[string]*DebrisObject
}

// NewDebrisFetcher builds the catalog: mock data when configured, otherwise
// the cache file when fresh, otherwise a live fetch (falling back to mock on
// failure so the server always starts).
func NewDebrisFetcher(cfg DebrisConfig, log *zap.SugaredLogger) *DebrisFetcher {
	f := &DebrisFetcher{}

	switch {
	case cfg.UseMock:
		f.setObjects(mockDebris())
		log.Infow("debris catalog using mock data", "count", f.Count())
	default:
		if objs, err := loadDebrisCache(cfg.CachePath, cfg.CacheTTL); err == nil {
			f.setObjects(objs)
			log.Infow("debris catalog loaded from cache", "count", f.Count(), "path", cfg.CachePath)
			return f
		}
		objs, err := fetchDebris(cfg.Timeout)
		if err != nil {
			log.Warnw("debris fetch failed, using mock data", "error", err)
			f.setObjects(mockDebris())
			return f
		}
		f.setObjects(objs)
		log.Infow("debris catalog fetched", "count", f.Count())
		if err := saveDebrisCache(cfg.CachePath, objs); err != nil {
			log.Warnw("debris cache write failed", "error", err)
		}
	}
	return f
}

func (f *DebrisFetcher) setObjects(objs []DebrisObject) {
	f.objects = objs
	f.byNorad = make(map[string]*DebrisObject, len(objs))
	for i := range objs {
		f.byNorad[objs[i].NoradID] = &objs[i]
	}
}

// GetRandom returns random debris for asteroid assignment, or nil when the
// catalog is empty.
func (f *DebrisFetcher) GetRandom() *DebrisObject {
	if len(f.objects) == 0 {
		return nil
	}
	return &f.objects[int(randFloat()*float64(len(f.objects)))%len(f.objects)]
}

// GetByNorad looks up debris by NORAD catalog ID.
func (f *DebrisFetcher) GetByNorad(noradID string) *DebrisObject {
	return f.byNorad[noradID]
}

// Count returns the catalog size.
func (f *DebrisFetcher) Count() int {
	return len(f.objects)
}

func loadDebrisCache(path string, ttl time.Duration) ([]DebrisObject, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if time.Since(info.ModTime()) >= ttl {
		return nil, fmt.Errorf("debris cache %s expired", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var objs []DebrisObject
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, fmt.Errorf("parse debris cache %s: %w", path, err)
	}
	if len(objs) == 0 {
		return nil, fmt.Errorf("debris cache %s is empty", path)
	}
	return objs, nil
}

func saveDebrisCache(path string, objs []DebrisObject) error {
	data, err := json.Marshal(objs)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func fetchDebris(timeout time.Duration) ([]DebrisObject, error) {
	client := &http.Client{Timeout: timeout}

	var all []DebrisObject
	for group, url := range celestrakURLs {
		resp, err := client.Get(url)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", group, err)
		}
		var records []gpRecord
		err = json.NewDecoder(resp.Body).Decode(&records)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", group, err)
		}
		for _, r := range records {
			obj := DebrisObject{
				NoradID:    r.NoradCatID.String(),
				Name:       r.ObjectName,
				ObjectType: r.ObjectType,
				Country:    r.Country,
				LaunchDate: r.LaunchDate,
			}
			if obj.NoradID == "" {
				obj.NoradID = "00000"
			}
			if obj.Name == "" {
				obj.Name = "UNKNOWN"
			}
			if obj.ObjectType == "" {
				obj.ObjectType = "DEBRIS"
			}
			all = append(all, obj)
		}
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("celestrak returned no objects")
	}
	return all, nil
}

// mockDebris generates offline catalog entries from real-ish templates.
func mockDebris() []DebrisObject {
	templates := []DebrisObject{
		{NoradID: "25544", Name: "ISS (ZARYA)", ObjectType: "PAYLOAD", Country: "ISS", LaunchDate: "1998-11-20"},
		{NoradID: "43226", Name: "STARLINK-1007", ObjectType: "PAYLOAD", Country: "US", LaunchDate: "2018-02-22"},
		{NoradID: "16908", Name: "SL-16 R/B", ObjectType: "ROCKET BODY", Country: "CIS", LaunchDate: "1986-06-19"},
		{NoradID: "40115", Name: "FENGYUN 1C DEB", ObjectType: "DEBRIS", Country: "PRC", LaunchDate: "2007-01-11"},
		{NoradID: "25400", Name: "COSMOS 2251 DEB", ObjectType: "DEBRIS", Country: "CIS", LaunchDate: "2009-02-10"},
		{NoradID: "37820", Name: "H-2A R/B", ObjectType: "ROCKET BODY", Country: "JPN", LaunchDate: "2011-09-17"},
		{NoradID: "33320", Name: "IRIDIUM 33 DEB", ObjectType: "DEBRIS", Country: "US", LaunchDate: "2009-02-10"},
		{NoradID: "20625", Name: "DELTA 2 R/B", ObjectType: "ROCKET BODY", Country: "US", LaunchDate: "1990-05-24"},
	}

	objs := make([]DebrisObject, 0, 500)
	for i := 0; i < 500; i++ {
		t := templates[i%len(templates)]
		objs = append(objs, DebrisObject{
			NoradID:    fmt.Sprintf("%d", atoiOr(t.NoradID, 10000)+i),
			Name:       fmt.Sprintf("%s-%d", t.Name, i),
			ObjectType: t.ObjectType,
			Country:    t.Country,
			LaunchDate: t.LaunchDate,
		})
	}
	return objs
}

func atoiOr(s string, fallback int) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
