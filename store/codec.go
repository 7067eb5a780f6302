package store

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mouguu/reddit-crawler/types"
)

// encodePayload packs the full fetch result (post, comment tree, hidden
// count) into the blob stored alongside the indexed metadata columns.
func encodePayload(item *types.FetchResult) ([]byte, error) {
	b, err := msgpack.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("encode post %s: %w", item.Post.ID, err)
	}
	return b, nil
}

func decodePayload(b []byte) (*types.FetchResult, error) {
	var item types.FetchResult
	if err := msgpack.Unmarshal(b, &item); err != nil {
		return nil, fmt.Errorf("decode post payload: %w", err)
	}
	return &item, nil
}
