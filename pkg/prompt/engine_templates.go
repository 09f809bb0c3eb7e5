package prompt

// EngineTemplates is the default natural-language body for the engine's
// seven named templates. Swapping a body's wording is permitted; the
// variable names referenced here must keep matching what each stage's
// bundle puts in the map passed to Render.
var EngineTemplates = map[string]string{
	"seed_queries": `You are researching "{{.topic}}" to build a learning path, written in {{.language}} with a {{.style}} tone.
Produce exactly five distinct web search queries that together cover the breadth of this topic.
{{.format_instructions}}`,

	"evaluate_research": `Topic: {{.topic}}

Accumulated research:
{{.research_summary}}

Decide whether this research is sufficient to plan a learning path on the topic. If not, list the missing aspects.
{{.format_instructions}}`,

	"refinement_queries": `Topic: {{.topic}}
Missing aspects: {{.missing_aspects}}

Produce search queries targeting specifically the missing aspects above.
{{.format_instructions}}`,

	"plan_modules": `Topic: {{.topic}}, language: {{.language}}, style: {{.style}}.

Research:
{{.results_text}}

Plan an ordered list of modules for a learning path on this topic.
{{if .desired_module_count}}Produce exactly {{.desired_module_count}} modules.{{end}}
{{.format_instructions}}`,

	"plan_submodules_for_module": `Topic: {{.topic}}, language: {{.language}}, style: {{.style}}.
Module: {{.module_title}} - {{.module_description}}

Plan an ordered list of submodules for this module.
{{if .desired_submodule_count}}Produce exactly {{.desired_submodule_count}} submodules.{{end}}
{{.format_instructions}}`,

	"submodule_queries": `Topic: {{.topic}}, language: {{.language}}, style: {{.style}}, depth: {{.depth_level}}.
Module: {{.module_title}} - {{.module_description}}
Submodule ({{.submodule_position}} of {{.submodule_count}}): {{.submodule_title}} - {{.submodule_description}}

Global outline: {{.global_outline}}
Sibling submodules: {{.sibling_submodules}}

Produce search queries specific to this submodule.
{{.format_instructions}}`,

	"submodule_content": `Topic: {{.topic}}, language: {{.language}}, style: {{.style}}.
Module summary: {{.module_summary}}
Submodule summary: {{.submodule_summary}}
Previous submodule: {{.previous_submodule}}
Next submodule: {{.next_submodule}}

Search results:
{{.formatted_results}}

Full outline: {{.outline}}

Write the submodule's content in full prose, citing the search results where relevant.`,
}
