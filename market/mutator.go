package market

import (
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"paperstreet/models"
)

// Default mutator configuration.
const (
	DefaultInterval = 30 * time.Second
	PriceFloor      = 15.0
	PriceCeiling    = 70.0
)

// Mutator is the background price feed stand-in: every interval it overwrites
// each stock's price with a uniform random value in [floor, ceiling], rounded
// to two places. It is an owned task with an explicit Start/Stop handle so
// tests can drive it deterministically.
type Mutator struct {
	db       *gorm.DB
	interval time.Duration
	floor    float64
	ceiling  float64
	rnd      *rand.Rand

	stop chan struct{}
	done chan struct{}
}

func NewMutator(db *gorm.DB, interval time.Duration) *Mutator {
	return &Mutator{
		db:       db,
		interval: interval,
		floor:    PriceFloor,
		ceiling:  PriceCeiling,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithSource replaces the random source, for deterministic tests. Must be
// called before Start.
func (m *Mutator) WithSource(src rand.Source) *Mutator {
	m.rnd = rand.New(src)
	return m
}

// Start launches the background sweep loop. It must not be called twice
// without an intervening Stop.
func (m *Mutator) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Tick()
			case <-m.stop:
				return
			}
		}
	}()
	log.WithField("interval", m.interval).Info("Price mutator started")
}

// Stop halts the loop and waits for the in-flight tick, if any, to finish.
func (m *Mutator) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
}

// Tick performs one sweep over the catalog. A failing update is logged and
// skipped so one bad row cannot abort the rest of the sweep.
func (m *Mutator) Tick() {
	var stocks []models.Stock
	if err := m.db.Select("id", "ticker").Find(&stocks).Error; err != nil {
		log.WithError(err).Error("Price sweep: listing stocks failed")
		return
	}

	for _, stock := range stocks {
		price := m.nextPrice()
		err := m.db.Model(&models.Stock{}).Where("id = ?", stock.ID).
			Update("price", price).Error
		if err != nil {
			log.WithError(err).WithField("ticker", stock.Ticker).
				Warn("Price sweep: update failed, skipping")
		}
	}
}

func (m *Mutator) nextPrice() decimal.Decimal {
	v := m.floor + m.rnd.Float64()*(m.ceiling-m.floor)
	return decimal.NewFromFloat(v).Round(2)
}
