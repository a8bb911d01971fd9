// Package utils содержит утилитарные функции, используемые в разных частях приложения
package utils

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeFileChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// FormatDuration форматирует time.Duration в формат HH:MM:SS
func FormatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// FormatTime форматирует позицию в секундах в формат M:SS.
// Неизвестные значения (NaN, бесконечность, отрицательные) выводятся как 0:00
func FormatTime(seconds float64) string {
	seconds = SanitizeSeconds(seconds)
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// SanitizeSeconds приводит нечисловые и отрицательные значения времени к нулю
func SanitizeSeconds(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return seconds
}

// Clamp ограничивает значение диапазоном [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FormatFileSize форматирует размер файла в человекочитаемый вид
func FormatFileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// TruncateString обрезает строку до указанной длины в символах, добавляя "..." если строка длиннее
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// ExpandHome раскрывает ведущую тильду в пути
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// FileNameWithoutExt возвращает имя файла без пути и расширения
func FileNameWithoutExt(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// SanitizeFileName очищает имя файла от недопустимых символов
func SanitizeFileName(name string) string {
	// Заменяем недопустимые символы
	name = unsafeFileChars.ReplaceAllString(name, "_")

	// Убираем лишние пробелы
	name = strings.TrimSpace(name)

	// Ограничиваем длину имени файла
	if runes := []rune(name); len(runes) > 200 {
		name = string(runes[:200])
	}

	return name
}
