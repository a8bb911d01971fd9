package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// createLikeCommand создает команду like
func (app *Application) createLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like [id]",
		Short: "Toggle the liked mark of a track",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			t, liked, err := app.Library.ToggleLike(args[0])
			if err != nil {
				printError(err)
				return
			}
			if liked {
				fmt.Printf("♥ Нравится: %s\n", t.DisplayName())
			} else {
				fmt.Printf("♡ Отметка снята: %s\n", t.DisplayName())
			}
		},
	}
}

// createLikedCommand создает команду liked
func (app *Application) createLikedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "liked",
		Short: "List liked tracks",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			liked := app.Library.Liked()
			if len(liked) == 0 {
				fmt.Println("♡ Понравившихся треков пока нет")
				return
			}
			fmt.Printf("♥ Понравившихся треков: %d\n\n", len(liked))
			printTrackTable(liked, nil)
		},
	}
}
