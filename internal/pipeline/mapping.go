package pipeline

import (
	"fmt"

	"github.com/foliolabs/folio/internal/model"
)

// mapSections converts parsed sections to records with derived ids,
// populating sectionIDMap (source-local id -> record id) as it goes. Sections
// arrive sorted by order index, so a well-formed outline has parents mapped
// before their children; an unseen parent still gets a deterministic id.
func mapSections(bookID string, sections []model.ParsedSection, sectionIDMap map[string]string) []model.Section {
	records := make([]model.Section, 0, len(sections))
	for _, sec := range sections {
		recordID := model.SectionID(bookID, sec.ID)
		sectionIDMap[sec.ID] = recordID
		parentID := ""
		if sec.ParentID != "" {
			if mapped, ok := sectionIDMap[sec.ParentID]; ok {
				parentID = mapped
			} else {
				parentID = model.SectionID(bookID, sec.ParentID)
			}
		}
		records = append(records, model.Section{
			ID:              recordID,
			BookID:          bookID,
			ParentSectionID: parentID,
			Level:           sec.Level,
			TitleText:       sec.TitleText,
			StartPageNumber: sec.StartPageNumber,
			EndPageNumber:   sec.EndPageNumber,
			OrderIndex:      sec.OrderIndex,
		})
	}
	return records
}

// mapBlocks converts one page's parsed blocks to records. The returned owner
// map (derived asset id -> derived block id) lets mapAssets back-link assets
// to the block that references them.
func mapBlocks(bookID, pageID string, blocks []model.ParsedBlock, sectionIDMap map[string]string) ([]model.Block, map[string]string) {
	records := make([]model.Block, 0, len(blocks))
	assetOwnerMap := make(map[string]string)
	for _, blk := range blocks {
		blockID := model.BlockID(bookID, blk.ID)
		assetRef := ""
		if blk.AssetID != "" {
			assetRef = model.AssetID(bookID, blk.AssetID)
			assetOwnerMap[assetRef] = blockID
		}
		records = append(records, model.Block{
			ID:           blockID,
			BookID:       bookID,
			PageID:       pageID,
			SectionID:    resolveSection(blk, sectionIDMap),
			BlockType:    blk.BlockType,
			Text:         blk.Text,
			Markup:       blk.Markup,
			BBox:         blk.BBox,
			ReadingOrder: blk.ReadingOrder,
			AssetID:      assetRef,
			SourceID:     blk.SourceID,
		})
	}
	return records, assetOwnerMap
}

// mapAssets converts one page's parsed assets to records, writing inline
// image bytes to the store.
func (p *Pipeline) mapAssets(bookID, pageID string, assets []model.ParsedAsset, assetOwnerMap map[string]string) ([]model.Asset, error) {
	records := make([]model.Asset, 0, len(assets))
	for _, a := range assets {
		assetID := model.AssetID(bookID, a.ID)
		filePath := ""
		switch {
		case len(a.ImageBytes) > 0:
			path, err := p.Store.WriteAssetImage(bookID, assetID, a.ImageBytes)
			if err != nil {
				return nil, fmt.Errorf("failed to write asset %s: %w", assetID, err)
			}
			filePath = path
		case a.ImagePath != "":
			filePath = a.ImagePath
		}
		records = append(records, model.Asset{
			ID:        assetID,
			BookID:    bookID,
			PageID:    pageID,
			AssetType: a.AssetType,
			FilePath:  filePath,
			BBox:      a.BBox,
			BlockID:   assetOwnerMap[assetID],
		})
	}
	return records, nil
}

// resolveSection returns the record id of the first section in the block's
// section path that maps to a stored section, innermost first.
func resolveSection(blk model.ParsedBlock, sectionIDMap map[string]string) string {
	for _, ref := range blk.SectionPath {
		if mapped, ok := sectionIDMap[ref]; ok {
			return mapped
		}
	}
	return ""
}
