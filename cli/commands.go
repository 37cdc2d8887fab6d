package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jonwraymond/archiveview/archive"
	"github.com/jonwraymond/archiveview/category"
	"github.com/jonwraymond/archiveview/health"
	"github.com/jonwraymond/archiveview/query"
	"github.com/jonwraymond/archiveview/relation"
	"github.com/jonwraymond/archiveview/viewer"
)

type command struct {
	usage string
	run   func(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error
}

var commands = map[string]command{
	"get":     {"<kind> <id>  resolve one author, tag, platform or collection", runGet},
	"list":    {"<kind> [-search s] [-page n] [-limit n]  list categories", runList},
	"post":    {"<id>  show a post with its relations", runPost},
	"posts":   {"[-search s] [-tags ids] [-authors ids] [-platforms ids] [-collections ids] [-order o] [-page n] [-limit n]  search posts", runPosts},
	"summary": {"show archive-wide counts", runSummary},
	"config":  {"show the effective file URL settings", runConfig},
	"caches":  {"show cache occupancy", runCaches},
	"clear":   {"<name>|all  drop a cache and its persisted record", runClear},
	"health":  {"run the health checks", runHealth},
}

func runGet(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: get <kind> <id>", ErrUsage)
	}
	kind, err := category.ParseKind(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}

	e, err := v.Resolver().Resolve(ctx, kind, id)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%s%d not found", kind.Prefix(), id)
	}
	if p.json {
		return p.encode(e)
	}
	return p.table([][]string{entityRow(e)})
}

func runList(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: list <kind>", ErrUsage)
	}
	kind, err := category.ParseKind(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	var page query.Page
	fs := subcommand("list")
	pageFlags(fs, &page)
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	list, err := v.Resolver().ResolveList(ctx, kind, page)
	if err != nil {
		return err
	}
	if list == nil {
		return fmt.Errorf("%s list not found", kind)
	}
	if p.json {
		return p.encode(list)
	}
	rows := make([][]string, 0, len(list.Items)+1)
	for _, e := range list.Items {
		rows = append(rows, entityRow(e))
	}
	rows = append(rows, []string{fmt.Sprintf("%d of %d", len(list.Items), list.Total)})
	return p.table(rows)
}

// postView is the printable form of a post.
type postView struct {
	archive.PostRecord
	ThumbURL     string                `json:"thumb_url,omitempty"`
	PlatformName string                `json:"platform_name,omitempty"`
	Tags         []relation.Tag        `json:"tags,omitempty"`
	Authors      []relation.Author     `json:"authors,omitempty"`
	Collections  []relation.Collection `json:"collections,omitempty"`
	Files        []relation.File       `json:"files,omitempty"`
}

func runPost(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: post <id>", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	post, err := v.Posts().Post(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return fmt.Errorf("post %d not found", id)
	}

	view := postView{
		PostRecord:   post.PostRecord,
		ThumbURL:     post.ThumbURL(),
		PlatformName: post.PlatformName(),
		Tags:         post.Tags,
		Authors:      post.Authors,
		Collections:  post.Collections,
		Files:        post.Files(),
	}
	if p.json {
		return p.encode(view)
	}

	rows := [][]string{
		{"id", strconv.FormatInt(view.ID, 10)},
		{"title", view.Title},
		{"updated", formatTime(view.Updated)},
		{"published", formatTime(view.Published)},
	}
	if view.Source != nil {
		rows = append(rows, []string{"source", *view.Source})
	}
	if view.PlatformName != "" {
		rows = append(rows, []string{"platform", view.PlatformName})
	}
	if view.ThumbURL != "" {
		rows = append(rows, []string{"thumb", view.ThumbURL})
	}
	names := make([]string, 0, len(view.Authors))
	for _, a := range view.Authors {
		names = append(names, a.Name)
	}
	if len(names) > 0 {
		rows = append(rows, []string{"authors", strings.Join(names, ", ")})
	}
	names = names[:0]
	for _, t := range view.Tags {
		names = append(names, t.Name)
	}
	if len(names) > 0 {
		rows = append(rows, []string{"tags", strings.Join(names, ", ")})
	}
	names = names[:0]
	for _, c := range view.Collections {
		names = append(names, c.Name)
	}
	if len(names) > 0 {
		rows = append(rows, []string{"collections", strings.Join(names, ", ")})
	}
	for _, f := range view.Files {
		rows = append(rows, []string{"file", f.URL})
	}
	return p.table(rows)
}

func runPosts(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	var (
		filter                               query.SearchFilter
		page                                 query.Page
		tags, authors, platforms, collection string
	)
	fs := subcommand("posts")
	fs.StringVar(&filter.Search, "search", "", "title search text")
	fs.StringVar(&tags, "tags", "", "comma separated tag ids")
	fs.StringVar(&authors, "authors", "", "comma separated author ids")
	fs.StringVar(&platforms, "platforms", "", "comma separated platform ids")
	fs.StringVar(&collection, "collections", "", "comma separated collection ids")
	fs.StringVar(&filter.OrderBy, "order", "", "updated, id or random")
	fs.IntVar(&page.Page, "page", 0, "zero based page")
	fs.IntVar(&page.Limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	var err error
	for _, f := range []struct {
		raw string
		dst *[]int64
	}{
		{tags, &filter.Tags},
		{authors, &filter.Authors},
		{platforms, &filter.Platforms},
		{collection, &filter.Collections},
	} {
		if *f.dst, err = parseIDs(f.raw); err != nil {
			return err
		}
	}

	list, err := v.Posts().List(ctx, filter, page)
	if err != nil {
		return err
	}
	if list == nil {
		return errors.New("post list not found")
	}
	if p.json {
		type item struct {
			archive.PostPreview
			ThumbURL string `json:"thumb_url,omitempty"`
		}
		items := make([]item, len(list.Items))
		for i, it := range list.Items {
			items[i] = item{PostPreview: it, ThumbURL: list.ThumbURL(it)}
		}
		return p.encode(struct {
			Items []item `json:"items"`
			Total int    `json:"total"`
		}{items, list.Total})
	}

	rows := make([][]string, 0, len(list.Items)+1)
	for _, it := range list.Items {
		rows = append(rows, []string{strconv.FormatInt(it.ID, 10), it.Title, formatTime(it.Updated), list.ThumbURL(it)})
	}
	rows = append(rows, []string{fmt.Sprintf("%d of %d", len(list.Items), list.Total)})
	return p.table(rows)
}

func runSummary(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: summary takes no arguments", ErrUsage)
	}
	s, err := v.Posts().Summary(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return errors.New("summary not found")
	}
	if p.json {
		return p.encode(s)
	}
	return p.table([][]string{
		{"version", s.Version},
		{"archiver", s.PostArchiverVersion},
		{"authors", strconv.Itoa(s.Authors)},
		{"tags", strconv.Itoa(s.Tags)},
		{"platforms", strconv.Itoa(s.Platforms)},
		{"collections", strconv.Itoa(s.Collections)},
	})
}

func runConfig(_ context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: config takes no arguments", ErrUsage)
	}
	urls := v.URLConfig()
	view := struct {
		BaseURL     string `json:"base_url"`
		ImagesURL   string `json:"images_url"`
		ResourceURL string `json:"resource_url"`
		Scheme      string `json:"scheme"`
		BucketSize  int64  `json:"bucket_size"`
		Storage     string `json:"storage"`
		Session     string `json:"session"`
	}{
		BaseURL:     v.Client().BaseURL(),
		ImagesURL:   urls.ImagesURL,
		ResourceURL: urls.ResourceURL,
		Scheme:      urls.Scheme.String(),
		BucketSize:  urls.BucketSize,
		Storage:     v.StorageType(),
		Session:     v.SessionID(),
	}
	if p.json {
		return p.encode(view)
	}
	return p.table([][]string{
		{"base_url", view.BaseURL},
		{"images_url", view.ImagesURL},
		{"resource_url", view.ResourceURL},
		{"scheme", view.Scheme},
		{"bucket_size", strconv.FormatInt(view.BucketSize, 10)},
		{"storage", view.Storage},
		{"session", view.Session},
	})
}

func runCaches(_ context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: caches takes no arguments", ErrUsage)
	}
	stats := v.Registry().Stats()
	if p.json {
		return p.encode(stats)
	}
	rows := [][]string{{"NAME", "LEN", "CAP", "PERSISTENT"}}
	for _, s := range stats {
		rows = append(rows, []string{s.Name, strconv.Itoa(s.Len), strconv.Itoa(s.Cap), strconv.FormatBool(s.Persistent)})
	}
	return p.table(rows)
}

func runClear(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: clear <name>|all", ErrUsage)
	}
	if args[0] == "all" {
		if err := v.ClearAll(ctx); err != nil {
			return err
		}
	} else if err := v.Clear(ctx, args[0]); err != nil {
		return err
	}
	if p.json {
		return p.encode(map[string]string{"cleared": args[0]})
	}
	_, err := fmt.Fprintf(p.w, "cleared %s\n", args[0])
	return err
}

func runHealth(ctx context.Context, v *viewer.Viewer, args []string, p *printer) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: health takes no arguments", ErrUsage)
	}
	report := v.Health().Run(ctx)
	var err error
	if p.json {
		err = p.encode(report)
	} else {
		err = report.WriteText(p.w)
	}
	if err != nil {
		return err
	}
	if report.Status == health.StatusUnhealthy {
		return ErrUnhealthy
	}
	return nil
}

func subcommand(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func pageFlags(fs *flag.FlagSet, page *query.Page) {
	fs.StringVar(&page.Search, "search", "", "name search text")
	fs.IntVar(&page.Page, "page", 0, "zero based page")
	fs.IntVar(&page.Limit, "limit", 0, "page size")
}

func entityRow(e category.Entity) []string {
	name, secondary := e.Display()
	return []string{e.Ref().String(), name, secondary}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid id %q", ErrUsage, s)
	}
	return id, nil
}

func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
