package tools

func objectSchema(properties map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func enumProp(description string, values ...string) map[string]interface{} {
	enum := make([]interface{}, 0, len(values))
	for _, v := range values {
		enum = append(enum, v)
	}
	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        enum,
	}
}

func boolProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}

// positiveIntProp accepts a positive integer or its decimal string form.
func positiveIntProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        []interface{}{"integer", "string"},
		"description": description,
		"minimum":     1,
		"pattern":     "^[1-9][0-9]*$",
	}
}

func paginationProps(props map[string]interface{}) map[string]interface{} {
	props["page"] = map[string]interface{}{
		"type":        "integer",
		"description": "Page number (default 1)",
		"minimum":     1,
	}
	props["per_page"] = map[string]interface{}{
		"type":        "integer",
		"description": "Results per page (1-100, default 100)",
		"minimum":     1,
		"maximum":     100,
	}
	return props
}
