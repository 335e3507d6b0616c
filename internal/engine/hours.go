package engine

import (
	"fmt"
	"time"

	"copytrader/internal/config"
)

// MarketHours ограничивает репликацию торговой сессией.
// Выключенное ограничение пропускает всё.
type MarketHours struct {
	enabled  bool
	openMin  int
	closeMin int
	loc      *time.Location
}

func NewMarketHours(cfg config.MarketHoursConfig) (*MarketHours, error) {
	if !cfg.Enabled {
		return &MarketHours{enabled: false}, nil
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("Некорректный часовой пояс %q: %w", cfg.Timezone, err)
	}

	openMin, err := parseClock(cfg.Open)
	if err != nil {
		return nil, err
	}
	closeMin, err := parseClock(cfg.Close)
	if err != nil {
		return nil, err
	}

	return &MarketHours{
		enabled:  true,
		openMin:  openMin,
		closeMin: closeMin,
		loc:      loc,
	}, nil
}

func parseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("Некорректное время %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Open сообщает, идёт ли торговая сессия в указанный момент.
func (h *MarketHours) Open(now time.Time) bool {
	if !h.enabled {
		return true
	}

	local := now.In(h.loc)
	if wd := local.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	return minute >= h.openMin && minute <= h.closeMin
}
