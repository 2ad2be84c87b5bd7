package domain

import "time"

// CrashDate convierte el tc normalizado en fecha de calendario.
// El eje normalizado mapea la ventana [inicio, fin] de los datos a [0, 1],
// así que tc > 1 cae (tc−1)·windowDays días después del fin de la ventana.
// tc ≤ 1 (dentro de la ventana, raro pero posible con gates relajados) se
// mapea desde el inicio de la ventana. Precisión hasta horas, como guarda
// la base de resultados.
func CrashDate(tc float64, dataEnd time.Time, windowDays int) time.Time {
	w := float64(windowDays)
	if tc > 1.0 {
		daysBeyond := (tc - 1.0) * w
		return addDaysHours(dataEnd, daysBeyond)
	}
	start := dataEnd.AddDate(0, 0, -windowDays)
	return addDaysHours(start, tc*w)
}

// DaysToCrash devuelve los días desde from hasta la fecha de crash predicha.
// Negativo si la predicción ya quedó atrás.
func DaysToCrash(tc float64, dataEnd time.Time, windowDays int, from time.Time) int {
	crash := CrashDate(tc, dataEnd, windowDays)
	return int(crash.Sub(from).Hours() / 24)
}

func addDaysHours(base time.Time, days float64) time.Time {
	whole := int(days)
	hours := (days - float64(whole)) * 24
	return base.AddDate(0, 0, whole).Add(time.Duration(hours * float64(time.Hour)))
}
