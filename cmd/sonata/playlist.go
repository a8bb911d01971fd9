package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// createPlaylistCommand создает группу команд для плейлистов
func (app *Application) createPlaylistCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "Manage playlists",
		Long:    `Create, edit and play playlists. Playlists are referenced by ID, ID prefix or name.`,
	}

	var description string
	create := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a playlist",
		Args:  cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			p, err := app.Library.CreatePlaylist(strings.Join(args, " "), description)
			if err != nil {
				printError(err)
				return
			}
			fmt.Printf("✅ Плейлист создан: %s (%s)\n", p.Name, shortID(p.ID))
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "playlist description")

	var newDescription string
	rename := &cobra.Command{
		Use:   "rename [playlist] [new name]",
		Short: "Rename a playlist",
		Args:  cobra.MinimumNArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			name := strings.Join(args[1:], " ")
			if err := app.Library.RenamePlaylist(args[0], name, newDescription); err != nil {
				printError(err)
				return
			}
			fmt.Printf("✅ Плейлист переименован: %s\n", name)
		},
	}
	rename.Flags().StringVarP(&newDescription, "description", "d", "", "new playlist description")

	cmd.AddCommand(
		create,
		rename,
		&cobra.Command{
			Use:   "delete [playlist]",
			Short: "Delete a playlist",
			Args:  cobra.ExactArgs(1),
			Run: func(_ *cobra.Command, args []string) {
				deleted, err := app.Library.DeletePlaylist(args[0])
				switch {
				case err != nil:
					printError(err)
				case !deleted:
					fmt.Println("ℹ️  Плейлист не найден, удалять нечего")
				default:
					fmt.Println("✅ Плейлист удален")
				}
			},
		},
		&cobra.Command{
			Use:   "add [playlist] [track]",
			Short: "Add a track to a playlist",
			Args:  cobra.ExactArgs(2),
			Run: func(_ *cobra.Command, args []string) {
				if err := app.Library.AddToPlaylist(args[0], args[1]); err != nil {
					printError(err)
					return
				}
				fmt.Println("✅ Трек добавлен в плейлист")
			},
		},
		&cobra.Command{
			Use:   "remove [playlist] [track]",
			Short: "Remove a track from a playlist",
			Args:  cobra.ExactArgs(2),
			Run: func(_ *cobra.Command, args []string) {
				if err := app.Library.RemoveFromPlaylist(args[0], args[1]); err != nil {
					printError(err)
					return
				}
				fmt.Println("✅ Трек убран из плейлиста")
			},
		},
		&cobra.Command{
			Use:   "move [playlist] [from] [to]",
			Short: "Move a track inside a playlist",
			Long:  `Move a track inside a playlist. Positions start at 1, as shown by "playlist show".`,
			Args:  cobra.ExactArgs(3),
			Run: func(_ *cobra.Command, args []string) {
				from, errFrom := strconv.Atoi(args[1])
				to, errTo := strconv.Atoi(args[2])
				if errFrom != nil || errTo != nil {
					printError(fmt.Errorf("позиции должны быть числами: %s %s", args[1], args[2]))
					return
				}
				if err := app.Library.MovePlaylistTrack(args[0], from-1, to-1); err != nil {
					printError(err)
					return
				}
				fmt.Printf("✅ Трек перемещен: %d -> %d\n", from, to)
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List playlists",
			Args:  cobra.NoArgs,
			Run: func(_ *cobra.Command, _ []string) {
				app.listPlaylists()
			},
		},
		&cobra.Command{
			Use:   "show [playlist]",
			Short: "Show playlist tracks",
			Args:  cobra.ExactArgs(1),
			Run: func(_ *cobra.Command, args []string) {
				app.showPlaylist(args[0])
			},
		},
		&cobra.Command{
			Use:   "play [playlist]",
			Short: "Play a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				_, tracks, err := app.Library.PlaylistTracks(args[0])
				if err != nil {
					printError(err)
					return nil
				}
				return app.playQueue(ctx, tracks, 0)
			},
		},
	)

	return cmd
}

func (app *Application) listPlaylists() {
	playlists := app.Library.Playlists()
	if len(playlists) == 0 {
		fmt.Println("📂 Плейлистов пока нет. Создайте первый: 'sonata playlist create [name]'")
		return
	}

	fmt.Printf("📂 Плейлистов: %d\n\n", len(playlists))
	for _, p := range playlists {
		fmt.Printf("  %-10s %-30s %4d тр.  %s\n", shortID(p.ID), p.Name, len(p.Tracks), p.Description)
	}
}

func (app *Application) showPlaylist(ref string) {
	p, err := app.Library.FindPlaylist(ref)
	if err != nil {
		printError(err)
		return
	}

	fmt.Printf("📂 %s\n", p.Name)
	if p.Description != "" {
		fmt.Printf("   %s\n", p.Description)
	}
	fmt.Println()

	_, tracks, err := app.Library.PlaylistTracks(p.ID)
	if err != nil {
		printError(err)
		return
	}
	printTrackTable(tracks, app.Library.IsLiked)
}
