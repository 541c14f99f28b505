package bot

import (
	"fmt"
	"strings"
	"time"

	"simops/internal"
	"simops/internal/config"
	"simops/internal/util"
)

type SimStatus int

const (
	StatusProblem SimStatus = iota
	StatusActive
	StatusInactive
)

// ClassifyStatus reads the free-text SIM state. "неактив" contains "актив",
// so the inactive markers are checked first.
func ClassifyStatus(state string) SimStatus {
	s := strings.ToLower(state)
	switch {
	case strings.Contains(s, "неактив"), strings.Contains(s, "блок"):
		return StatusInactive
	case strings.Contains(s, "актив"):
		return StatusActive
	default:
		return StatusProblem
	}
}

func (s SimStatus) mark() string {
	switch s {
	case StatusActive:
		return "✅"
	case StatusInactive:
		return "❌"
	default:
		return "⚠️"
	}
}

// Columns names the inventory sheet columns the device report reads.
type Columns struct {
	Device   string
	Status   string
	Operator string
	ICCID    string
	Traffic  string
	Tariff   string
}

func ColumnsFromConfig(cfg config.Config) Columns {
	return Columns{
		Device:   cfg.SheetsDeviceColumn,
		Status:   cfg.SheetsStatusColumn,
		Operator: cfg.SheetsOperatorCol,
		ICCID:    cfg.SheetsICCIDColumn,
		Traffic:  cfg.SheetsTrafficColumn,
		Tariff:   cfg.SheetsTariffColumn,
	}
}

type DeviceSim struct {
	Operator string
	ICCID    string
	State    string
	Traffic  string
	Tariff   string
	Status   SimStatus
}

type DeviceReport struct {
	Device   string
	Sims     []DeviceSim
	Active   int
	Inactive int
	Problem  int
}

// FindDevice collects the SIMs whose device cell contains device,
// case-insensitively.
func FindDevice(sheet internal.Sheet, cols Columns, device string) DeviceReport {
	report := DeviceReport{Device: device}
	for _, row := range sheet.Rows {
		if !util.ContainsFold(sheet.Get(row, cols.Device), device) {
			continue
		}
		sim := DeviceSim{
			Operator: sheet.Get(row, cols.Operator),
			ICCID:    sheet.Get(row, cols.ICCID),
			State:    sheet.Get(row, cols.Status),
			Traffic:  sheet.Get(row, cols.Traffic),
			Tariff:   sheet.Get(row, cols.Tariff),
		}
		sim.Status = ClassifyStatus(sim.State)
		switch sim.Status {
		case StatusActive:
			report.Active++
		case StatusInactive:
			report.Inactive++
		default:
			report.Problem++
		}
		report.Sims = append(report.Sims, sim)
	}
	return report
}

func (r DeviceReport) Render(finished time.Time) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "📱 Отчет о симкартах для устройства: %s\n\n", r.Device)
	for i, sim := range r.Sims {
		fmt.Fprintf(&b, "%s Симкарта %d: %s", sim.Status.mark(), i+1, util.FirstNonEmpty(sim.State, "Н/Д"))
		if sim.Traffic != "" {
			fmt.Fprintf(&b, " (Трафик: %s)", sim.Traffic)
		} else if sim.Tariff != "" {
			fmt.Fprintf(&b, " (Тариф: %s)", sim.Tariff)
		}
		fmt.Fprintf(&b, " | Оператор: %s", util.FirstNonEmpty(sim.Operator, "Н/Д"))
		if sim.ICCID != "" {
			fmt.Fprintf(&b, " | ICCID: %s", sim.ICCID)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n📊 Статистика:\n")
	fmt.Fprintf(&b, "✅ Активных: %d\n", r.Active)
	fmt.Fprintf(&b, "❌ Неактивных: %d\n", r.Inactive)
	fmt.Fprintf(&b, "⚠️ С проблемами: %d\n", r.Problem)
	fmt.Fprintf(&b, "📱 Всего симкарт: %d\n", len(r.Sims))
	fmt.Fprintf(&b, "\n⏰ Проверка завершена в: %s", finished.Format("15:04:05"))
	return b.String()
}
