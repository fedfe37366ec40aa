package event

// UpsertHistory records a score observation for a date, keeping at most one
// entry per distinct date. An existing entry for the date is replaced in
// place; otherwise the entry is appended. Dates only ever move forward
// between batches, so appends preserve chronological order.
func (e *Event) UpsertHistory(entry HistoryEntry) {
	for i := range e.History {
		if e.History[i].Date == entry.Date {
			e.History[i] = entry
			return
		}
	}
	e.History = append(e.History, entry)
}

// UpsertArticle records the presentation snapshot for a date under the same
// one-entry-per-date rule as UpsertHistory. The scan runs newest-first: the
// dedupe pass keys article entries by date, title, and source, so several
// same-date entries can coexist and the replacement must land on the latest.
func (e *Event) UpsertArticle(entry ArticleEntry) {
	for i := len(e.ArticleHistory) - 1; i >= 0; i-- {
		if e.ArticleHistory[i].Date == entry.Date {
			e.ArticleHistory[i] = entry
			return
		}
	}
	e.ArticleHistory = append(e.ArticleHistory, entry)
}
