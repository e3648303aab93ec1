package feed

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// VerifyCachedResources compares every cached document against its remote
// checksum, re-downloading entries that went stale. Once mismatches reach
// maxUnmatched the whole cache is cleared and the pass stops; the next
// session repopulates it from scratch.
//
// The pass is best-effort: it runs before a session and must never block one,
// so failures are logged and swallowed.
func (f *Fetcher) VerifyCachedResources(ctx context.Context, maxUnmatched int) {
	keys, err := f.store.Keys(ctx)
	if err != nil {
		f.logger.Warn("cache verification skipped", "error", err.Error())
		return
	}

	unmatched := 0

	for _, key := range keys {
		checksumURL, err := f.urls.Checksum(key)
		if err != nil {
			f.logger.Warn("cache verification: bad cached key", "key", key, "error", err.Error())
			continue
		}

		remoteSum, err := f.downloadText(ctx, checksumURL)
		if err != nil {
			// No network: leave the cache alone, it is all we have.
			f.logger.Warn("cache verification aborted", "url", checksumURL, "error", err.Error())
			return
		}

		cached, ok, err := f.store.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		localSum := md5.Sum([]byte(cached))
		if hex.EncodeToString(localSum[:]) == strings.TrimSpace(remoteSum) {
			continue
		}

		f.logger.Info("cached document is stale, re-downloading", "url", key)
		if f.collector != nil {
			f.collector.VerifyMismatches.Inc()
		}
		unmatched++

		payload, err := f.download(ctx, key)
		if err != nil {
			f.logger.Warn("stale document re-download failed", "url", key, "error", err.Error())
		} else if err := f.store.Set(ctx, key, string(payload)); err != nil {
			f.logger.Warn("stale document cache update failed", "url", key, "error", err.Error())
		}

		if unmatched >= maxUnmatched {
			f.logger.Info("too many stale cache entries, clearing everything",
				"unmatched", unmatched, "threshold", maxUnmatched)
			if f.collector != nil {
				f.collector.VerifyClears.Inc()
			}
			if err := f.store.Clear(ctx); err != nil {
				f.logger.Warn("cache clear failed", "error", err.Error())
			}
			return
		}
	}
}
