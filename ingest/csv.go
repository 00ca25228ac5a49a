package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVProcessor reads edge lists with source, target and label columns.
// Optional source_type and target_type columns set the entity types.
type CSVProcessor struct{}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

// ProcessData processes CSV data
func (p *CSVProcessor) ProcessData(data []byte) (*Response, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("error reading CSV header: %w", err)
	}

	sourceIdx, targetIdx, labelIdx := -1, -1, -1
	sourceTypeIdx, targetTypeIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "source", "from", "src":
			sourceIdx = i
		case "target", "to", "dst":
			targetIdx = i
		case "label", "relation", "property":
			labelIdx = i
		case "source_type":
			sourceTypeIdx = i
		case "target_type":
			targetTypeIdx = i
		}
	}

	if sourceIdx == -1 || targetIdx == -1 {
		return nil, fmt.Errorf("CSV must contain source and target columns")
	}

	resp := &Response{
		Entities:   make(map[string]Entity),
		Properties: make(map[string]string),
		Relations:  make(map[string]map[string][]string),
	}

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		line++

		sourceID := column(row, sourceIdx)
		targetID := column(row, targetIdx)
		if sourceID == "" || targetID == "" {
			return nil, fmt.Errorf("CSV row %d: source and target are required", line)
		}

		addEntity(resp, sourceID, column(row, sourceTypeIdx))
		addEntity(resp, targetID, column(row, targetTypeIdx))

		label := column(row, labelIdx)
		if label == "" {
			label = "related"
		}
		resp.Properties[label] = label

		props, ok := resp.Relations[sourceID]
		if !ok {
			props = make(map[string][]string)
			resp.Relations[sourceID] = props
		}
		props[label] = append(props[label], targetID)
	}

	return resp, nil
}

func addEntity(resp *Response, id, entityType string) {
	e, ok := resp.Entities[id]
	if !ok {
		e = Entity{Label: id}
	}
	if e.Type == "" {
		e.Type = entityType
	}
	resp.Entities[id] = e
}

func column(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
