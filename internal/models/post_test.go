package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wastePost() Post {
	return Post{
		PostType: PostTypeWaste,
		Title:    "Bottles for pickup",
		Waste: &WasteDetails{Items: []WasteItem{
			{ItemName: "Bottles", MaterialID: "m1", SellingPrice: 50, Kg: 2},
		}},
	}
}

func TestPostValidate(t *testing.T) {
	deadline := mustTime(t, "2026-12-01T00:00:00Z")

	tests := []struct {
		name    string
		mutate  func(p *Post)
		wantErr string
	}{
		{name: "valid waste", mutate: func(p *Post) {}},
		{name: "valid initiative", mutate: func(p *Post) {
			p.PostType = PostTypeInitiative
			p.Waste = nil
			p.Initiative = &InitiativeDetails{
				Items:           []InitiativeItem{{ItemName: "Cans", MaterialID: "m2", Kg: 10}},
				ProjectDeadline: &deadline,
			}
		}},
		{name: "valid forum", mutate: func(p *Post) {
			p.PostType = PostTypeForum
			p.Waste = nil
			p.Forum = &ForumDetails{Category: ForumCategoryTips}
		}},
		{name: "unknown type", mutate: func(p *Post) { p.PostType = "Auction" }, wantErr: "unknown postType"},
		{name: "missing title", mutate: func(p *Post) { p.Title = "   " }, wantErr: "title is required"},
		{name: "missing payload", mutate: func(p *Post) { p.Waste = nil }, wantErr: "requires a waste payload"},
		{name: "two payloads", mutate: func(p *Post) {
			p.Forum = &ForumDetails{Category: ForumCategoryGeneral}
		}, wantErr: "must not carry a forum payload"},
		{name: "payload of other variant", mutate: func(p *Post) {
			p.PostType = PostTypeForum
		}, wantErr: "requires a forum payload"},
		{name: "empty items", mutate: func(p *Post) { p.Waste.Items = nil }, wantErr: "at least one item"},
		{name: "negative price", mutate: func(p *Post) { p.Waste.Items[0].SellingPrice = -1 }, wantErr: "sellingPrice"},
		{name: "zero kg", mutate: func(p *Post) { p.Waste.Items[0].Kg = 0 }, wantErr: "kg must be positive"},
		{name: "bad forum category", mutate: func(p *Post) {
			p.PostType = PostTypeForum
			p.Waste = nil
			p.Forum = &ForumDetails{Category: "Gossip"}
		}, wantErr: "unknown forum category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := wastePost()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestWasteItemRequiresSellingPrice(t *testing.T) {
	body := `{"postType":"Waste","title":"Bottles","waste":{"items":[{"itemName":"Bottles","materialID":"m1","kg":2}]}}`
	var p Post
	err := json.Unmarshal([]byte(body), &p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sellingPrice is required")
}

func TestWasteItemAcceptsZeroPrice(t *testing.T) {
	body := `{"postType":"Waste","title":"Free bottles","waste":{"items":[{"itemName":"Bottles","materialID":"m1","sellingPrice":0,"kg":2}]}}`
	var p Post
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	require.NoError(t, p.Validate())
	assert.Equal(t, 0.0, p.Waste.Items[0].SellingPrice)
}

func TestPostMaterialIDs(t *testing.T) {
	p := wastePost()
	p.Waste.Items = append(p.Waste.Items,
		WasteItem{ItemName: "Jars", MaterialID: "m3", SellingPrice: 1, Kg: 1},
		WasteItem{ItemName: "More bottles", MaterialID: "m1", SellingPrice: 1, Kg: 1},
	)
	assert.Equal(t, []string{"m1", "m3"}, p.MaterialIDs())
}
