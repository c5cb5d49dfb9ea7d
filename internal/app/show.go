package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"coindash/internal/market"
	"coindash/internal/view"
)

// Top prints the ranked listing.
func (a *App) Top(ctx context.Context, opts TopOptions) error {
	cur, err := a.currency(opts.Currency)
	if err != nil {
		return err
	}

	var favs market.Membership
	if opts.FavoritesOnly {
		set, closeStore, err := a.openFavorites(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		favs = set
	}

	client := a.newClient()
	store, err := a.newStore(client, favs)
	if err != nil {
		return err
	}
	if opts.Sort != "" {
		key, err := market.ParseSortKey(opts.Sort)
		if err != nil {
			return err
		}
		store.SetSort(key)
	}

	if _, err := store.Reload(ctx, cur); err != nil {
		return err
	}
	listing := store.Current(opts.FavoritesOnly)
	assets := listing.Assets
	if opts.Limit > 0 && len(assets) > opts.Limit {
		assets = assets[:opts.Limit]
	}
	if len(assets) == 0 {
		fmt.Fprintln(a.Out, "no coins to display")
		return nil
	}

	isFav := func(id string) bool { return favs != nil && favs.Contains(id) }
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tID\tSymbol\tPrice\tMarket Cap\t24h\tFav")
	for _, card := range view.RenderCards(assets, isFav, listing.Currency) {
		star := ""
		if card.Favorite {
			star = "*"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			card.Rank, card.ID, card.Symbol, card.Price, card.MarketCap, card.Change, star)
	}
	return writer.Flush()
}

// Search prints coin search hits.
func (a *App) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("query must not be empty")
	}

	hits, err := a.newClient().Search(ctx, query)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(a.Out, "no results found")
		return nil
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rank\tID\tName\tSymbol")
	for _, hit := range hits {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n",
			view.FormatRank(hit.MarketCapRank), hit.ID, sanitizeInline(hit.Name), strings.ToUpper(hit.Symbol))
	}
	return writer.Flush()
}

// Detail prints the extended fields of one asset.
func (a *App) Detail(ctx context.Context, id, currency string) error {
	cur, err := a.currency(currency)
	if err != nil {
		return err
	}

	d, err := a.newLoader(a.newClient()).LoadDetail(ctx, id, cur)
	if err != nil {
		return err
	}
	v := view.RenderDetail(d, cur)

	fmt.Fprintln(a.Out, v.Title)
	if v.Description != "" {
		fmt.Fprintln(a.Out, sanitizeInline(v.Description))
	}
	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"Rank", v.Rank},
		{"Current Price", v.Price},
		{"Market Cap", v.MarketCap},
		{"Total Supply", v.TotalSupply},
		{"Circulating Supply", v.CirculatingSupply},
		{"24h Change", v.Change},
		{"All-Time High", fmt.Sprintf("%s (%s)", v.ATH, v.ATHDate)},
		{"Volume (24h)", v.Volume},
	}
	for _, row := range rows {
		fmt.Fprintf(writer, "%s:\t%s\n", row[0], row[1])
	}
	return writer.Flush()
}

// ListFavorites prints the persisted favorite ids.
func (a *App) ListFavorites(ctx context.Context) error {
	set, closeStore, err := a.openFavorites(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	ids := set.IDs()
	if len(ids) == 0 {
		fmt.Fprintln(a.Out, "no favorites")
		return nil
	}
	for _, id := range ids {
		fmt.Fprintln(a.Out, id)
	}
	return nil
}

// ToggleFavorite flips one id in the persisted set.
func (a *App) ToggleFavorite(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("id must not be empty")
	}

	set, closeStore, err := a.openFavorites(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	added, err := set.Toggle(ctx, id)
	if err != nil {
		return err
	}
	if added {
		fmt.Fprintf(a.Out, "added %s\n", id)
	} else {
		fmt.Fprintf(a.Out, "removed %s\n", id)
	}
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
