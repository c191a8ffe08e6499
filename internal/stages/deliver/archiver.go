// internal/stages/deliver/archiver.go
package deliver

import (
	"context"
	"encoding/json"

	"diagnosis-pipeline/internal/common/database"
	"diagnosis-pipeline/internal/common/errors"
)

// ESArchiver indexes delivered reports into Elasticsearch.
type ESArchiver struct {
	client *database.ElasticsearchClient
	index  string
}

func NewESArchiver(client *database.ElasticsearchClient, index string) *ESArchiver {
	return &ESArchiver{client: client, index: index}
}

func (a *ESArchiver) Archive(ctx context.Context, docID string, report ArchivedReport) error {
	body, err := json.Marshal(report)
	if err != nil {
		return errors.NewArchiveWriteFailedError(err)
	}
	if err := a.client.Index(ctx, a.index, docID, body); err != nil {
		return errors.NewArchiveWriteFailedError(err)
	}
	return nil
}
