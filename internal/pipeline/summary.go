package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"simops/internal/carrier"
)

const unknownExamples = 3

// BuildSummary renders the human-readable report sent to chat and printed by
// the CLI.
func BuildSummary(table carrier.Table, res RunResult) string {
	cls := res.Classification
	b := strings.Builder{}

	fmt.Fprintf(&b, "Выгрузка ICCID:IMEI %s\n", res.Stamp)
	fmt.Fprintf(&b, "Обработано строк: %d\n", cls.Stats.Rows)
	fmt.Fprintf(&b, "Найдено записей с IMEI и ICCID: %d\n", cls.Stats.Matched)
	fmt.Fprintf(&b, "Пропущено строк: %d\n", cls.Stats.Skipped)

	b.WriteString("\nПо операторам:\n")
	for _, c := range table.Carriers {
		fmt.Fprintf(&b, "  %s: %d\n", c.Label, cls.Count(c.Label))
	}
	if len(cls.Unknown) > 0 {
		fmt.Fprintf(&b, "  %s: %d\n", table.UnknownLabel, len(cls.Unknown))
	}

	if len(res.Written) > 0 {
		b.WriteString("\nФайлы:\n")
		for _, w := range res.Written {
			name := filepath.Base(w.Artifact.Path)
			if w.Err != nil {
				fmt.Fprintf(&b, "  %s: ошибка записи %s: %v\n", w.Artifact.Carrier, name, w.Err)
				continue
			}
			fmt.Fprintf(&b, "  %s: %s (%d)\n", w.Artifact.Carrier, name, w.Artifact.Records)
		}
	} else {
		b.WriteString("\nФайлы не созданы\n")
	}

	for _, p := range res.Pending {
		fmt.Fprintf(&b, "\n%s: найдено %d записей, выгрузка в разработке", p.Label, p.Records)
		if p.First != nil {
			fmt.Fprintf(&b, " (первая: ICCID=%s, IMEI=%s)", p.First.ICCID, p.First.IMEI)
		}
		b.WriteString("\n")
	}

	if len(cls.Unknown) > 0 {
		fmt.Fprintf(&b, "\n%s, примеры:\n", table.UnknownLabel)
		for i, u := range cls.Unknown {
			if i >= unknownExamples {
				break
			}
			fmt.Fprintf(&b, "  строка %d: ICCID=%s, IMEI=%s\n", u.RowNo, u.ICCID, u.IMEI)
		}
		if res.ReportPath != "" {
			if res.ReportErr != nil {
				fmt.Fprintf(&b, "  отчёт не записан: %v\n", res.ReportErr)
			} else {
				fmt.Fprintf(&b, "  полный список: %s\n", filepath.Base(res.ReportPath))
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
