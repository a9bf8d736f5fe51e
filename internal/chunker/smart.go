package chunker

// metadataMargin leaves room for the separator between a metadata block and
// the chunk body when reserving budget.
const metadataMargin = 50

const metadataSeparator = "\n\n---\n\n"

// SmartChunk chunks content while accounting for a formatted metadata block.
// When metaInEach is set, the metadata's own token cost (plus a separation
// margin) is reserved from the effective budget — floored at budget/2 so a
// huge metadata block cannot degrade the budget to near zero — and the block
// is prepended to every chunk. Otherwise the metadata is prepended only to
// the first chunk.
func (e *Engine) SmartChunk(content, metadataMD string, budget int, model string, metaInEach bool) []string {
	effective := budget
	if metaInEach && metadataMD != "" {
		metaTokens := e.counter.Count(metadataMD, model)
		effective = budget - metaTokens - metadataMargin
		if effective < budget/2 {
			effective = budget / 2
		}
	}

	chunks := e.Chunk(content, effective, model)
	if metadataMD == "" || len(chunks) == 0 {
		return chunks
	}

	if metaInEach {
		out := make([]string, len(chunks))
		for i, c := range chunks {
			out[i] = metadataMD + metadataSeparator + c
		}
		return out
	}

	chunks[0] = metadataMD + metadataSeparator + chunks[0]
	return chunks
}
