package engine

import (
	"github.com/nabbar/gcproxy/internal/battery"
	"github.com/nabbar/gcproxy/internal/codec"
)

// updateBatteryFromSysStatus implements SYS_STATUS handling:
// flight_battery := battery_remaining/10.0, assigned directly — this
// path is never EMA-smoothed, only the AP_ADC avionics path is.
func (e *Engine) updateBatteryFromSysStatus(m *codec.SysStatus) {
	percent := float64(m.BatteryRemaining) / 10.0
	e.status.SetFlightBattery(percent)
}

// updateBatteryFromCellVoltage implements the AP_ADC branch of §4.11,
// when per-cell telemetry is present and numcells > 0: the
// avionics_battery_level field, smoothed via the Engine's EMA Smoother.
func (e *Engine) updateBatteryFromCellVoltage(raw uint16) {
	if e.cfg.NumCells <= 0 {
		return
	}
	vcell := battery.CellVoltage(raw, e.cfg.NumCells)
	percent := battery.PercentFromCellVoltage(vcell)
	smoothed := e.battSmooth.Observe(percent)
	e.status.SetAvionicsBattery(smoothed)
}
