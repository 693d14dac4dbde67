package repo

import "github.com/foliolabs/folio/internal/model"

func rowFromBook(b *model.Book) *bookRow {
	return &bookRow{
		ID:               b.ID,
		FileMD5:          b.FileMD5,
		Title:            b.Title,
		Author:           b.Author,
		Source:           b.Source,
		OriginalFilePath: b.OriginalFilePath,
		Language:         b.Language,
		ParseVersion:     b.ParseVersion,
		Status:           string(b.Status),
		PageCount:        b.PageCount,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

func bookFromRow(r *bookRow) *model.Book {
	return &model.Book{
		ID:               r.ID,
		FileMD5:          r.FileMD5,
		Title:            r.Title,
		Author:           r.Author,
		Source:           r.Source,
		OriginalFilePath: r.OriginalFilePath,
		Language:         r.Language,
		ParseVersion:     r.ParseVersion,
		Status:           model.BookStatus(r.Status),
		PageCount:        r.PageCount,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func rowFromJob(j *model.ParseJob) *jobRow {
	return &jobRow{
		ID:           j.ID,
		BookID:       j.BookID,
		State:        string(j.State),
		Phase:        string(j.Phase),
		CurrentPage:  j.CurrentPage,
		TotalPages:   j.TotalPages,
		ErrorMessage: j.ErrorMessage,
		StartedAt:    j.StartedAt,
		UpdatedAt:    j.UpdatedAt,
	}
}

func jobFromRow(r *jobRow) *model.ParseJob {
	return &model.ParseJob{
		ID:           r.ID,
		BookID:       r.BookID,
		State:        model.JobState(r.State),
		Phase:        model.JobPhase(r.Phase),
		CurrentPage:  r.CurrentPage,
		TotalPages:   r.TotalPages,
		ErrorMessage: r.ErrorMessage,
		StartedAt:    r.StartedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func rowFromPage(p *model.Page) *pageRow {
	return &pageRow{
		ID:                 p.ID,
		BookID:             p.BookID,
		PageNumber:         p.PageNumber,
		Width:              p.Width,
		Height:             p.Height,
		RenderImagePath:    p.RenderImagePath,
		ThumbnailImagePath: p.ThumbnailImagePath,
		ParseStatus:        p.ParseStatus,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func pageFromRow(r *pageRow) *model.Page {
	return &model.Page{
		ID:                 r.ID,
		BookID:             r.BookID,
		PageNumber:         r.PageNumber,
		Width:              r.Width,
		Height:             r.Height,
		RenderImagePath:    r.RenderImagePath,
		ThumbnailImagePath: r.ThumbnailImagePath,
		ParseStatus:        r.ParseStatus,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}

func rowFromSection(s *model.Section) *sectionRow {
	return &sectionRow{
		ID:              s.ID,
		BookID:          s.BookID,
		ParentSectionID: s.ParentSectionID,
		Level:           s.Level,
		TitleText:       s.TitleText,
		StartPageNumber: s.StartPageNumber,
		EndPageNumber:   s.EndPageNumber,
		OrderIndex:      s.OrderIndex,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func rowFromBlock(b *model.Block) *blockRow {
	return &blockRow{
		ID:           b.ID,
		BookID:       b.BookID,
		PageID:       b.PageID,
		SectionID:    b.SectionID,
		BlockType:    b.BlockType,
		Text:         b.Text,
		Markup:       b.Markup,
		BboxX:        b.BBox.X,
		BboxY:        b.BBox.Y,
		BboxW:        b.BBox.W,
		BboxH:        b.BBox.H,
		ReadingOrder: b.ReadingOrder,
		AssetID:      b.AssetID,
		SourceID:     b.SourceID,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func blockFromRow(r *blockRow) *model.Block {
	return &model.Block{
		ID:           r.ID,
		BookID:       r.BookID,
		PageID:       r.PageID,
		SectionID:    r.SectionID,
		BlockType:    r.BlockType,
		Text:         r.Text,
		Markup:       r.Markup,
		BBox:         model.BBox{X: r.BboxX, Y: r.BboxY, W: r.BboxW, H: r.BboxH},
		ReadingOrder: r.ReadingOrder,
		AssetID:      r.AssetID,
		SourceID:     r.SourceID,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func rowFromAsset(a *model.Asset) *assetRow {
	return &assetRow{
		ID:        a.ID,
		BookID:    a.BookID,
		PageID:    a.PageID,
		AssetType: a.AssetType,
		FilePath:  a.FilePath,
		BboxX:     a.BBox.X,
		BboxY:     a.BBox.Y,
		BboxW:     a.BBox.W,
		BboxH:     a.BBox.H,
		BlockID:   a.BlockID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
