package builder

import (
	"log/slog"
	"os"

	"github.com/tidwall/hashmap"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/record"
)

// Truncate deletes this builder's canonical shard file, metadata sidecar,
// and append log, restoring a pristine state, per spec §4.4. Missing files
// are not an error. Mirrors original_source's index_manager::truncate
// delete-then-recreate shape: the caller is expected to recreate the mount
// directory afterward (this function only removes files within it).
func (b *Builder) Truncate(dataPath, metaPath string) error {
	for _, p := range []string{dataPath, metaPath, b.logPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errs.Io(p, -1, err)
		}
	}
	b.cache = hashmap.New[uint64, []record.Record](64)
	b.cacheBytes = 0
	slog.Info("builder: truncated", "shard", b.shardID, "data", dataPath, "meta", metaPath)
	return nil
}
