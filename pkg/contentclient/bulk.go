package contentclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/fivetwenty-io/content-sdk/internal/constants"
	"github.com/fivetwenty-io/content-sdk/pkg/content"
)

// Bulk item operations understood by the management API.
const (
	OperationPublish   = "publish"
	OperationUnpublish = "unpublish"
)

// BulkStatusService reads the status of a bulk items job.
type BulkStatusService struct {
	content.Fetcher[content.BulkOperationStatus]
	content.Overridable[BulkStatusService]
}

// BulkOperationStatus reads the status of the bulk items job with the given id.
func (c *Client) BulkOperationStatus(id string) *BulkStatusService {
	p := c.management(constants.PathBulkItemsOperations+"/"+id).Require("job id", id)

	s := &BulkStatusService{Fetcher: content.NewFetcher[content.BulkOperationStatus](c.engine, p)}
	s.Overridable = content.Overridable[BulkStatusService](content.NewEndpoint(s, p))

	return s
}

// PublishItems returns a job publishing itemIDs to the given channels. Nothing
// is sent until the job is run.
func (c *Client) PublishItems(channelIDs []string, itemIDs ...string) *content.PollingJob[content.BulkOperationStatus] {
	return c.bulkItemsJob(OperationPublish, channelIDs, itemIDs)
}

// UnpublishItems returns a job removing itemIDs from the given channels.
func (c *Client) UnpublishItems(channelIDs []string, itemIDs ...string) *content.PollingJob[content.BulkOperationStatus] {
	return c.bulkItemsJob(OperationUnpublish, channelIDs, itemIDs)
}

func (c *Client) bulkItemsJob(operation string, channelIDs, itemIDs []string) *content.PollingJob[content.BulkOperationStatus] {
	channels := make([]map[string]string, 0, len(channelIDs))
	for _, id := range channelIDs {
		channels = append(channels, map[string]string{"id": id})
	}

	body := content.BulkOperation{
		Items: itemIDs,
		Operations: map[string]interface{}{
			operation: map[string]interface{}{"channels": channels},
		},
	}

	start := func(ctx context.Context) (*content.BulkOperationStatus, error) {
		if len(itemIDs) == 0 {
			return nil, &content.Error{Kind: content.KindInvalidRequest, Message: "no items given"}
		}

		if len(channelIDs) == 0 {
			return nil, &content.Error{Kind: content.KindInvalidRequest, Message: "no channels given"}
		}

		p := c.management(constants.PathBulkItemsOperations).SetMethod(http.MethodPost).SetBody(body)
		f := content.NewFetcher[content.BulkOperationStatus](c.engine, p)

		return f.Fetch(ctx)
	}

	check := func(ctx context.Context, current *content.BulkOperationStatus) (*content.BulkOperationStatus, error) {
		id := current.ID
		if id == "" {
			if href, ok := current.Links.Find(content.LinkSelf); ok {
				id = href[strings.LastIndex(href, "/")+1:]
			}
		}

		return c.BulkOperationStatus(id).Fetch(ctx)
	}

	isComplete := func(status *content.BulkOperationStatus) bool {
		return status.Completed
	}

	return content.NewPollingJob(start, check, isComplete, c.engine.PollInterval())
}
