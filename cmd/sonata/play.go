package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/hazadus/go-sonata/internal/data"
	"github.com/hazadus/go-sonata/internal/player"
	"github.com/hazadus/go-sonata/internal/utils"
)

// Шаг перемотки и громкости в консольном плеере
const cliSeekStep = 5.0

// playControls - команды сессии, доступные с клавиатуры
type playControls interface {
	Snapshot() player.Snapshot
	TogglePlay() error
	Next() error
	Previous() error
	SeekTo(seconds float64) error
	VolumeUp()
	VolumeDown()
	ToggleMute()
	ToggleShuffle() bool
	CycleRepeat() player.RepeatMode
}

// createPlayCommand создает команду play с привязкой к экземпляру приложения
func (app *Application) createPlayCommand(ctx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "play [trackid]",
		Short: "Play the library starting at a track",
		Long: `Play the whole library as a queue, starting at the given track ID or ID prefix.
Without an ID playback starts from the last played track.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ref := ""
			if len(args) == 1 {
				ref = args[0]
			}
			tracks, start, err := app.resolveQueue(ref)
			if err != nil {
				printError(err)
				return nil
			}
			return app.playQueue(ctx, tracks, start)
		},
	}
}

// resolveQueue возвращает очередь из всей библиотеки и позицию старта
func (app *Application) resolveQueue(ref string) ([]data.Track, int, error) {
	tracks := app.Library.ListTracks()
	if len(tracks) == 0 {
		return nil, 0, fmt.Errorf("библиотека пуста, добавьте треки командой 'add'")
	}

	id := ""
	if ref != "" {
		t, err := app.Library.FindTrack(ref)
		if err != nil {
			return nil, 0, err
		}
		id = t.ID
	} else if last, ok := app.Library.LastPlayed(); ok {
		id = last.ID
	}

	for i, t := range tracks {
		if t.ID == id {
			return tracks, i, nil
		}
	}
	return tracks, 0, nil
}

// enableRawMode включает режим raw для терминала (без буферизации и echo)
func enableRawMode() {
	cmd := exec.Command("stty", "-echo", "-icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run() // Игнорируем ошибку, так как это не критично для работы плеера
}

// disableRawMode восстанавливает нормальный режим терминала
func disableRawMode() {
	cmd := exec.Command("stty", "echo", "icanon")
	cmd.Stdin = os.Stdin
	_ = cmd.Run()
}

// readKeys читает клавиши и переводит escape-последовательности стрелок в имена
func readKeys(ctx context.Context, r io.Reader, keys chan<- string) {
	defer close(keys)
	reader := bufio.NewReader(r)

	for {
		b, err := reader.ReadByte()
		if err != nil {
			return
		}

		key := string(b)
		switch b {
		case ' ', '\n', '\r':
			key = "space"
		case 27:
			// ESC [ C / ESC [ D
			if next, err := reader.ReadByte(); err == nil && next == '[' {
				if arrow, err := reader.ReadByte(); err == nil {
					switch arrow {
					case 'C':
						key = "right"
					case 'D':
						key = "left"
					}
				}
			}
		}

		select {
		case keys <- key:
		case <-ctx.Done():
			return
		}
	}
}

// applyKey выполняет команду клавиши. Возвращает true, если нужно выйти
func applyKey(ctl playControls, key string) (bool, error) {
	switch key {
	case "q":
		return true, nil
	case "space":
		return false, ctl.TogglePlay()
	case "n":
		return false, ctl.Next()
	case "p":
		return false, ctl.Previous()
	case "right":
		return false, ctl.SeekTo(ctl.Snapshot().CurrentTime + cliSeekStep)
	case "left":
		return false, ctl.SeekTo(ctl.Snapshot().CurrentTime - cliSeekStep)
	case "+", "=":
		ctl.VolumeUp()
	case "-":
		ctl.VolumeDown()
	case "m":
		ctl.ToggleMute()
	case "s":
		ctl.ToggleShuffle()
	case "r":
		ctl.CycleRepeat()
	}
	return false, nil
}

func (app *Application) playQueue(ctx context.Context, tracks []data.Track, start int) error {
	ctl := app.Player(ctx)
	updates := ctl.Subscribe()
	defer ctl.Unsubscribe(updates)

	if err := ctl.PlayQueue(tracks, start); err != nil {
		printError(err)
		return nil
	}

	fmt.Printf("🎮 Управление:\n")
	fmt.Printf("   [Пробел] пауза • [n/p] следующий/предыдущий • [←/→] перемотка\n")
	fmt.Printf("   [+/-] громкость • [m] без звука • [s] перемешать • [r] повтор • [q] выход\n")
	fmt.Println()

	// Включаем raw режим для чтения одиночных клавиш
	enableRawMode()
	defer disableRawMode()

	keysCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	keys := make(chan string)
	go readKeys(keysCtx, os.Stdin, keys)

	var current string
	for {
		select {
		case snapshot, ok := <-updates:
			if !ok {
				return nil
			}
			if snapshot.HasTrack() && snapshot.Track.ID != current {
				current = snapshot.Track.ID
				fmt.Printf("\r\033[K🎵 Сейчас играет: %s\n", snapshot.Track.DisplayName())
			}
			displayProgress(snapshot)
			if snapshot.State == player.StateEnded {
				fmt.Println("\n✅ Воспроизведение завершено")
				return nil
			}
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			quit, err := applyKey(ctl, key)
			if err != nil {
				fmt.Printf("\r\033[K")
				printError(err)
			}
			if quit {
				fmt.Println("\n⏹️  Воспроизведение остановлено пользователем")
				ctl.Pause()
				return nil
			}
		case <-ctx.Done():
			fmt.Println("\n🚫 Операция отменена")
			return nil
		}
	}
}

// displayProgress отображает прогресс воспроизведения в одной строке
func displayProgress(s player.Snapshot) {
	fmt.Printf("\r\033[K%s", progressLine(s))
}

func progressLine(s player.Snapshot) string {
	statusIcon := "⏱️"
	switch s.State {
	case player.StatePaused:
		statusIcon = "⏸️"
	case player.StateEnded:
		statusIcon = "⏹️"
	}

	progress := "??%"
	if s.Duration > 0 {
		progress = fmt.Sprintf("%.1f%%", s.ProgressPercent())
	}

	volume := fmt.Sprintf("%d%%", int(s.Volume*100+0.5))
	if s.IsMuted {
		volume = "без звука"
	}

	line := fmt.Sprintf("%s  %s | %s | Громкость: %s | Повтор: %s", statusIcon, progress, s.TimeLabel(), volume, s.Repeat)
	if s.Shuffle {
		line += " | перемешивание"
	}
	if s.Err != nil {
		line += " | ⚠️ " + utils.TruncateString(s.Err.Error(), 40)
	}
	return line
}
