package extract

// extractionSystemPrompt instructs the model to emit the exact JSON
// shape Result unmarshals. The entity-type vocabulary is closed so node
// labels stay mergeable across documents.
const extractionSystemPrompt = `You are an expert at extracting entities and relationships from text.

Extract all relevant entities (people, organizations, locations, concepts, products, dates, etc.)
and their relationships from the given text.

Entity types should be one of: Person, Organization, Location, Concept, Product, Date, Event, Technology, or Other.

Relationship types should be descriptive (e.g., WORKS_FOR, LOCATED_IN, RELATED_TO, OWNS, CREATED, MANAGES, PARTICIPATED_IN).

Respond with a single JSON object and nothing else, in exactly this shape:

{
  "entities": [
    {"name": "entity name", "type": "Person", "description": "brief description"}
  ],
  "relationships": [
    {"source": "source entity name", "target": "target entity name", "type": "WORKS_FOR", "description": "brief description"}
  ]
}

Be thorough but precise. Only extract entities and relationships that are clearly mentioned or strongly implied in the text.`

const extractionUserTemplate = "Context: %s\n\nText to analyze:\n%s"
