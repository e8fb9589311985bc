package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

func renderSearchResults(res *catalog.SearchResults) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Kind", "ID", "Name", "By", "Tracks"})

	for _, group := range [][]catalog.SearchItem{res.Tracks, res.Albums, res.Playlists} {
		for _, it := range group {
			tracks := ""
			if it.Kind == catalog.LinkKindAlbum {
				tracks = strconv.Itoa(it.TrackCount)
			}
			tw.AppendRow(table.Row{it.Kind.String(), it.ID, it.Name, it.Owner, tracks})
		}
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft}, //nolint:exhaustruct
	})

	return tw.Render()
}
