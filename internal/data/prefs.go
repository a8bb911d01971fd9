package data

import (
	"math"
	"strconv"

	"github.com/hazadus/go-sonata/internal/utils"
)

// Темы оформления
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences хранит скалярные пользовательские настройки
type Preferences struct {
	Theme       string `yaml:"theme"`
	Volume      string `yaml:"volume,omitempty"` // Громкость в виде строки с плавающей точкой
	LastTrackID string `yaml:"last_track_id,omitempty"`
}

// DefaultPreferences возвращает настройки по умолчанию
func DefaultPreferences() Preferences {
	return Preferences{Theme: ThemeDark}
}

func (p *Preferences) normalize() {
	if p.Theme != ThemeLight {
		p.Theme = ThemeDark
	}
}

// ToggleTheme переключает тему и возвращает новое значение
func (p *Preferences) ToggleTheme() string {
	if p.Theme == ThemeDark {
		p.Theme = ThemeLight
	} else {
		p.Theme = ThemeDark
	}
	return p.Theme
}

// VolumeLevel возвращает сохраненную громкость или fallback, если она не задана
func (p *Preferences) VolumeLevel(fallback float64) float64 {
	if p.Volume == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(p.Volume, 64)
	if err != nil || math.IsNaN(v) {
		return fallback
	}
	return utils.Clamp(v, 0, 1)
}

// SetVolumeLevel сохраняет громкость в диапазоне [0, 1]
func (p *Preferences) SetVolumeLevel(v float64) {
	p.Volume = strconv.FormatFloat(utils.Clamp(v, 0, 1), 'f', -1, 64)
}
