package billing

import "time"

// YearMonth — расчётный месяц (год + месяц), единица долга по договору.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) Valid() bool {
	return ym.Year > 0 && ym.Month >= 1 && ym.Month <= 12
}

// Compare сравнивает лексикографически: -1, 0, 1.
func Compare(a, b YearMonth) int {
	if a.Year != b.Year {
		if a.Year < b.Year {
			return -1
		}
		return 1
	}
	if a.Month != b.Month {
		if a.Month < b.Month {
			return -1
		}
		return 1
	}
	return 0
}

// Next — следующий месяц, с переносом года.
func Next(ym YearMonth) YearMonth {
	if ym.Month >= 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// InRange: start <= x и (end не задан или x <= end).
func InRange(x, start YearMonth, end *YearMonth) bool {
	if Compare(x, start) < 0 {
		return false
	}
	if end != nil && Compare(x, *end) > 0 {
		return false
	}
	return true
}

// ClampEnd — верхняя граница начислений: конец договора, но не позже now.
// Будущие месяцы не считаем долгом.
func ClampEnd(end *YearMonth, now YearMonth) YearMonth {
	if end == nil || Compare(*end, now) > 0 {
		return now
	}
	return *end
}

// FromTime переводит момент времени в расчётный месяц.
// Единственное место, где появляются "текущие" часы: дальше now всегда параметр.
func FromTime(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}
