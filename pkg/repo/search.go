/*
   Retrix - multi-platform emulator front-end
   Copyright (c) 2022, The Retrix Authors

   This file is part of Retrix.

   Retrix is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   Retrix is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with Retrix. If not, see <http://www.gnu.org/licenses/>.
*/

package repo

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	log "github.com/sirupsen/logrus"
)

// Hit is a search match, Ref can be passed to Resolve for getting the file.
type Hit struct {
	Path   string `json:"path"`
	Ref    string `json:"ref"`
	System string `json:"system,omitempty"`
}

//
type SearchResult struct {
	Hits     []Hit  `json:"hits"`
	Total    uint64 `json:"total"`
	Complete bool   `json:"complete"`
}

/*
	Search runs term as a query string query against the index, and returns up
	to max hits. Complete is false if there were more hits.
*/
func (i *Index) Search(term string, max int) (*SearchResult, error) {

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("no search term")
	}
	if max < 1 {
		return nil, fmt.Errorf("invalid max hits: %d", max)
	}

	i.mutex.Lock()
	index := i.index
	i.mutex.Unlock()
	if index == nil {
		return nil, fmt.Errorf("index stopped")
	}

	i.opts.Metrics.Searched()
	log.Debugf("searching for '%s'", term)

	query := bleve.NewQueryStringQuery(term)
	search := bleve.NewSearchRequestOptions(query, max+1, 0, false)
	search.Fields = []string{"system"}

	res, err := index.Search(search)
	if err != nil {
		return nil, err
	}

	ret := &SearchResult{
		Hits:     make([]Hit, len(res.Hits)),
		Total:    res.Total,
		Complete: true}

	for ix, h := range res.Hits {
		ret.Hits[ix] = Hit{Path: h.ID, Ref: Reference(h.ID)}
		if sys, ok := h.Fields["system"].(string); ok {
			ret.Hits[ix].System = sys
		}
	}

	if len(ret.Hits) > max {
		ret.Hits = ret.Hits[:max]
		ret.Complete = false
	}

	return ret, nil
}

// Count returns the number of files in the index.
func (i *Index) Count() (uint64, error) {
	i.mutex.Lock()
	index := i.index
	i.mutex.Unlock()
	if index == nil {
		return 0, fmt.Errorf("index stopped")
	}
	return index.DocCount()
}
