package api

import (
	"context"

	"github.com/jestr-media/client/pkg/feed"
)

var (
	_ feed.API     = (*Client)(nil)
	_ feed.ViewAPI = (*Client)(nil)
)

func (c *Client) FetchFeedPage(ctx context.Context, cursor string, pageSize int) (feed.Page, error) {
	if c.user == "" {
		return feed.Page{}, ErrNoUser
	}

	var resp FetchMemesResp
	if err := c.do(ctx, "fetchMemes", FetchMemesReq{
		LastEvaluatedKey: Cursor(cursor),
		UserEmail:        c.user,
		Limit:            pageSize,
	}, &resp); err != nil {
		return feed.Page{}, err
	}
	if resp.Memes == nil {
		return feed.Page{}, ErrBadResponse
	}

	items := make([]feed.Item, 0, len(resp.Memes))
	for _, m := range resp.Memes {
		items = append(items, m.toItem())
	}
	return feed.Page{
		Items:        items,
		NextCursor:   string(resp.LastEvaluatedKey),
		LastViewedId: resp.LastViewedMemeId,
	}, nil
}

func (c *Client) RecordViews(ctx context.Context, views []feed.View) error {
	body := RecordMemeViewsReq{Views: make([]WireView, 0, len(views))}
	for _, v := range views {
		body.Views = append(body.Views, WireView{Email: v.Email, MemeID: v.ItemId})
	}
	return c.do(ctx, "recordMemeViews", body, nil)
}

func (m WireMeme) toItem() feed.Item {
	mediaType := feed.MediaImage
	if m.MediaType == string(feed.MediaVideo) {
		mediaType = feed.MediaVideo
	}
	return feed.Item{
		Id:         m.MemeID,
		MediaType:  mediaType,
		URL:        m.URL,
		Caption:    m.Caption,
		UploadedAt: parseTime(m.UploadTimestamp),
		Author: feed.Author{
			Email:    m.Email,
			Username: m.Username,
			Avatar:   m.ProfilePicUrl,
			Followed: m.IsFollowed,
		},
		LikeCount:     int(m.LikeCount),
		DownloadCount: int(m.DownloadCount),
		CommentCount:  int(m.CommentCount),
		ShareCount:    int(m.ShareCount),
		Liked:         m.Liked,
	}
}
