package billing

import "errors"

// ErrEndBeforeStart — конец договора раньше начала. Такое состояние не должно
// попадать в хранилище; если попало — это баг вызывающего кода, молча
// возвращать пустой список нельзя.
var ErrEndBeforeStart = errors.New("billing: contract end before start")

// UnpaidMonths возвращает неоплаченные месяцы договора по возрастанию:
// от start до min(end, now) включительно, без месяцев из paid.
// Договор, начинающийся позже now, долга не имеет.
// Функция чистая: одинаковые входы — одинаковый результат, записей нет.
func UnpaidMonths(start YearMonth, end *YearMonth, paid map[YearMonth]struct{}, now YearMonth) ([]YearMonth, error) {
	if !start.Valid() {
		// договора нет — нет и долга
		return nil, nil
	}
	if end != nil && Compare(*end, start) < 0 {
		return nil, ErrEndBeforeStart
	}
	if Compare(start, now) > 0 {
		return nil, nil
	}

	upper := ClampEnd(end, now)
	var out []YearMonth
	for ym := start; Compare(ym, upper) <= 0; ym = Next(ym) {
		if _, ok := paid[ym]; ok {
			continue
		}
		out = append(out, ym)
	}
	return out, nil
}
