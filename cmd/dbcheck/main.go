// dbcheck is a small operator utility for poking at the lt-engine database.
//
//	dbcheck              table counts
//	dbcheck transcript X print the stored transcript for call X
//	dbcheck stuck        list injections sitting in processing
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	pool, err := pgxpool.New(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	ctx := context.Background()

	if len(os.Args) > 2 && os.Args[1] == "transcript" {
		printTranscript(ctx, pool, os.Args[2])
		return
	}

	if len(os.Args) > 1 && os.Args[1] == "stuck" {
		printStuckInjections(ctx, pool)
		return
	}

	// Default: table counts
	tables := []string{"calls", "translations", "audio_injections"}
	fmt.Println("Table                    Count")
	fmt.Println("─────────────────────────────────")
	for _, t := range tables {
		var count int64
		pool.QueryRow(ctx, "SELECT count(*) FROM "+t).Scan(&count)
		fmt.Printf("%-25s %d\n", t, count)
	}

	fmt.Println("\nInjections by status:")
	rows, _ := pool.Query(ctx, "SELECT status, count(*) FROM audio_injections GROUP BY status ORDER BY status")
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		rows.Scan(&status, &count)
		fmt.Printf("  %-12s %d\n", status, count)
	}
}

func printTranscript(ctx context.Context, pool *pgxpool.Pool, callID string) {
	rows, err := pool.Query(ctx, `
		SELECT segment_index, source_language, target_language,
		       original_text, translated_text, translated_audio_url
		FROM translations
		WHERE call_id = $1
		ORDER BY segment_index
	`, callID)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		found = true
		var idx int
		var src, tgt, original, translated string
		var audioURL *string
		rows.Scan(&idx, &src, &tgt, &original, &translated, &audioURL)
		audio := ""
		if audioURL != nil {
			audio = " [audio]"
		}
		fmt.Printf("  %3d %s→%s%s\n      %s\n      %s\n", idx, src, tgt, audio, original, translated)
	}
	if !found {
		fmt.Printf("no translations for call %s\n", callID)
	}
}

func printStuckInjections(ctx context.Context, pool *pgxpool.Pool) {
	rows, err := pool.Query(ctx, `
		SELECT id, call_id, segment_index, call_control_id, updated_at
		FROM audio_injections
		WHERE status = 'processing'
		ORDER BY updated_at
	`)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		found = true
		var id int64
		var callID, callControlID string
		var idx int
		var updatedAt interface{}
		rows.Scan(&id, &callID, &idx, &callControlID, &updatedAt)
		fmt.Printf("  id=%d call=%s segment=%d leg=%s since=%v\n", id, callID, idx, callControlID, updatedAt)
	}
	if !found {
		fmt.Println("no injections stuck in processing")
	}
}
