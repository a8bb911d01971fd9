package main

import (
	"fmt"
	"strings"

	"github.com/hazadus/go-sonata/internal/data"
	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/utils"
)

// printError выводит пользовательское сообщение об ошибке
func printError(err error) {
	fmt.Printf("❌ Ошибка: %s\n", apperrors.UserMessage(err))
}

// printTrackTable выводит треки таблицей
func printTrackTable(tracks []data.Track, liked func(id string) bool) {
	fmt.Printf("  %-10s %-30s %-30s %-20s %-8s %s\n",
		"ID", "Исполнитель", "Название", "Альбом", "Время", "Где")
	fmt.Println(strings.Repeat("-", 110))

	for _, t := range tracks {
		mark := " "
		if liked != nil && liked(t.ID) {
			mark = "♥"
		}
		place := "офлайн"
		if t.IsRemote() {
			place = "сеть"
		}

		duration := "N/A"
		if t.Duration > 0 {
			duration = utils.FormatTime(t.Duration)
		}

		fmt.Printf("%s %-10s %-30s %-30s %-20s %-8s %s\n",
			mark,
			shortID(t.ID),
			utils.TruncateString(t.Artist, 28),
			utils.TruncateString(t.Title, 28),
			utils.TruncateString(t.Album, 18),
			duration,
			place)
	}
}

// shortID возвращает префикс ID, по которому команды находят трек
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
