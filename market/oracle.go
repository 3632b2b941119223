package market

import (
	"time"

	"gorm.io/gorm"

	"paperstreet/models"
)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// Oracle decides whether trading is currently permitted. It has no side
// effects; missing configuration rows always mean "closed", never an error.
type Oracle struct {
	db  *gorm.DB
	loc *time.Location
}

func NewOracle(db *gorm.DB, loc *time.Location) *Oracle {
	return &Oracle{db: db, loc: loc}
}

// IsOpen reports whether the market is open at the given instant. Checks run
// in order and short-circuit: admin override, holiday calendar, weekday
// schedule, then the open/close window (both bounds inclusive, minute
// resolution).
func (o *Oracle) IsOpen(now time.Time) bool {
	var ctrl models.MarketControl
	err := o.db.First(&ctrl).Error
	if err == nil && !ctrl.Enabled {
		return false
	}

	local := now.In(o.loc)

	var holiday models.Holiday
	err = o.db.Where("date = ?", local.Format(dateLayout)).First(&holiday).Error
	if err == nil {
		return false
	}

	var hours models.TradingHours
	if err := o.db.Where("weekday = ?", local.Weekday().String()).First(&hours).Error; err != nil {
		return false
	}

	open, err := time.Parse(clockLayout, hours.OpenTime)
	if err != nil {
		return false
	}
	close, err := time.Parse(clockLayout, hours.CloseTime)
	if err != nil {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	openMinute := open.Hour()*60 + open.Minute()
	closeMinute := close.Hour()*60 + close.Minute()
	return minute >= openMinute && minute <= closeMinute
}
