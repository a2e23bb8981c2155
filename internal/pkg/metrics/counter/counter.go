package counter

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ManuelReschke/PixelVault/internal/pkg/cache"
	"github.com/ManuelReschke/PixelVault/internal/pkg/database"
)

const (
	syncOutcomesKey = "mailinglist:counters:outcomes"
)

// AddSyncOutcome increments the pending counter for a mailing-list sync
// outcome (subscribed, unsubscribed, skipped, contact_missing, failed) in
// Redis. The hash field is "<date>|<outcome>" so a flush lands per-day rows.
func AddSyncOutcome(outcome string) error {
	ctx := context.Background()
	field := fmt.Sprintf("%s|%s", time.Now().UTC().Format("2006-01-02"), outcome)
	return cache.GetClient().HIncrBy(ctx, syncOutcomesKey, field, 1).Err()
}

// FlushAll flushes pending outcome counters to the database.
func FlushAll() error {
	return flushOutcomesToTable(syncOutcomesKey, "sync_stats")
}

// flushOutcomesToTable drains the Redis hash atomically and applies batched
// increments to the sync_stats table. Uses RENAME to a temporary key for an
// atomic drain without losing in-flight increments.
func flushOutcomesToTable(redisKey, table string) error {
	ctx := context.Background()
	rdb := cache.GetClient()

	// Atomically move the hash to a temp key for draining
	tmpKey := fmt.Sprintf("%s:tmp:%d", redisKey, time.Now().UnixNano())
	if err := rdb.Do(ctx, "RENAME", redisKey, tmpKey).Err(); err != nil {
		// If key does not exist, nothing to flush
		if strings.Contains(strings.ToLower(err.Error()), "no such key") {
			return nil
		}
		// Some Redis libs return redis.Nil; treat as empty
		if err.Error() == "redis: nil" {
			return nil
		}
		return err
	}

	// Ensure cleanup of tmpKey even if later steps fail
	defer rdb.Del(ctx, tmpKey)

	data, err := rdb.HGetAll(ctx, tmpKey).Result()
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}

	type row struct {
		date    string
		outcome string
		inc     int64
	}
	rows := make([]row, 0, len(data))
	for k, v := range data {
		parts := strings.SplitN(k, "|", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			continue
		}
		inc, ierr := strconv.ParseInt(v, 10, 64)
		if ierr != nil || inc == 0 {
			continue
		}
		rows = append(rows, row{date: parts[0], outcome: parts[1], inc: inc})
	}
	if len(rows) == 0 {
		return nil
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].date != rows[j].date {
			return rows[i].date < rows[j].date
		}
		return rows[i].outcome < rows[j].outcome
	})

	// Compose a single batched upsert:
	// INSERT INTO sync_stats (date, outcome, count, created_at, updated_at)
	// VALUES (?,?,?,NOW(),NOW()) ... ON DUPLICATE KEY UPDATE count = count + VALUES(count)
	var builder strings.Builder
	args := make([]interface{}, 0, len(rows)*3)
	builder.WriteString("INSERT INTO ")
	builder.WriteString(table)
	builder.WriteString(" (date, outcome, count, created_at, updated_at) VALUES ")
	for i, r := range rows {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString("(?, ?, ?, NOW(), NOW())")
		args = append(args, r.date, r.outcome, r.inc)
	}
	builder.WriteString(" ON DUPLICATE KEY UPDATE count = count + VALUES(count), updated_at = NOW()")

	db := database.GetDB()
	if err := db.Exec(builder.String(), args...).Error; err != nil {
		return err
	}
	return nil
}
