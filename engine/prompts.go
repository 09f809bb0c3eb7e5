package engine

import (
	"github.com/pma1999/mapmylearn-sub001/model"
	"github.com/pma1999/mapmylearn-sub001/pkg/kvstore"
)

// Template names the engine owns. Swapping the natural-language content
// behind a name is permitted; the variable list and output schema for each
// are fixed by the typed bundle and result type used at its call site.
const (
	TemplateSeedQueries             = "seed_queries"
	TemplateEvaluateResearch        = "evaluate_research"
	TemplateRefinementQueries       = "refinement_queries"
	TemplatePlanModules             = "plan_modules"
	TemplatePlanSubmodulesForModule = "plan_submodules_for_module"
	TemplateSubmoduleQueries        = "submodule_queries"
	TemplateSubmoduleContent        = "submodule_content"
)

// seedQueriesVars is the variable bundle for TemplateSeedQueries.
type seedQueriesVars struct {
	Topic    string
	Language string
	Style    model.ExplanationStyle
}

func (v seedQueriesVars) toKSVA() kvstore.KSVA {
	return kvstore.NewKSVA(3).
		Put("topic", v.Topic).
		Put("language", v.Language).
		Put("style", string(v.Style))
}

// evaluateResearchVars is the variable bundle for TemplateEvaluateResearch.
type evaluateResearchVars struct {
	Topic   string
	Summary string
}

func (v evaluateResearchVars) toKSVA() kvstore.KSVA {
	return kvstore.NewKSVA(2).
		Put("topic", v.Topic).
		Put("research_summary", v.Summary)
}

// refinementQueriesVars is the variable bundle for
// TemplateRefinementQueries.
type refinementQueriesVars struct {
	Topic          string
	MissingAspects []string
}

func (v refinementQueriesVars) toKSVA() kvstore.KSVA {
	return kvstore.NewKSVA(2).
		Put("topic", v.Topic).
		Put("missing_aspects", v.MissingAspects)
}

// planModulesVars is the variable bundle for TemplatePlanModules.
type planModulesVars struct {
	Topic               string
	Language            string
	Style               model.ExplanationStyle
	ResultsText         string
	DesiredModuleCount  *int
}

func (v planModulesVars) toKSVA() kvstore.KSVA {
	vars := kvstore.NewKSVA(5).
		Put("topic", v.Topic).
		Put("language", v.Language).
		Put("style", string(v.Style)).
		Put("results_text", v.ResultsText)
	if v.DesiredModuleCount != nil {
		vars.Put("desired_module_count", *v.DesiredModuleCount)
	}
	return vars
}

// planSubmodulesVars is the variable bundle for
// TemplatePlanSubmodulesForModule.
type planSubmodulesVars struct {
	Topic                 string
	Language              string
	Style                 model.ExplanationStyle
	ModuleTitle           string
	ModuleDescription     string
	DesiredSubmoduleCount *int
}

func (v planSubmodulesVars) toKSVA() kvstore.KSVA {
	vars := kvstore.NewKSVA(5).
		Put("topic", v.Topic).
		Put("language", v.Language).
		Put("style", string(v.Style)).
		Put("module_title", v.ModuleTitle).
		Put("module_description", v.ModuleDescription)
	if v.DesiredSubmoduleCount != nil {
		vars.Put("desired_submodule_count", *v.DesiredSubmoduleCount)
	}
	return vars
}

// outlineEntry is one row of the abridged global outline handed to
// submodule-level prompts, so a submodule's author knows what every other
// module in the path covers.
type outlineEntry struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	IsCurrent   bool   `json:"is_current"`
}

// submoduleQueriesVars is the variable bundle for
// TemplateSubmoduleQueries.
type submoduleQueriesVars struct {
	Topic                string
	Language             string
	Style                model.ExplanationStyle
	ModuleTitle          string
	ModuleDescription    string
	SubmoduleTitle       string
	SubmoduleDescription string
	SubmodulePosition    int
	SubmoduleCount       int
	DepthLevel           model.DepthLevel
	GlobalOutline        []outlineEntry
	SiblingSubmodules    []outlineEntry
}

func (v submoduleQueriesVars) toKSVA() kvstore.KSVA {
	return kvstore.NewKSVA(12).
		Put("topic", v.Topic).
		Put("language", v.Language).
		Put("style", string(v.Style)).
		Put("module_title", v.ModuleTitle).
		Put("module_description", v.ModuleDescription).
		Put("submodule_title", v.SubmoduleTitle).
		Put("submodule_description", v.SubmoduleDescription).
		Put("submodule_position", v.SubmodulePosition).
		Put("submodule_count", v.SubmoduleCount).
		Put("depth_level", string(v.DepthLevel)).
		Put("global_outline", v.GlobalOutline).
		Put("sibling_submodules", v.SiblingSubmodules)
}

// adjacentSubmodule names the previous or next submodule in a module's
// plan. When there is none the bundle holds a nil pointer, which toKSVA
// renders as the sentinel string "none" for the content prompt.
type adjacentSubmodule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// submoduleContentVars is the variable bundle for
// TemplateSubmoduleContent.
type submoduleContentVars struct {
	Topic                string
	Language             string
	Style                model.ExplanationStyle
	ModuleSummary        string
	SubmoduleSummary     string
	PreviousSubmodule    *adjacentSubmodule
	NextSubmodule        *adjacentSubmodule
	FormattedResults     string
	FullOutlineMarked    []outlineEntry
}

func (v submoduleContentVars) toKSVA() kvstore.KSVA {
	vars := kvstore.NewKSVA(8).
		Put("topic", v.Topic).
		Put("language", v.Language).
		Put("style", string(v.Style)).
		Put("module_summary", v.ModuleSummary).
		Put("submodule_summary", v.SubmoduleSummary).
		Put("formatted_results", v.FormattedResults).
		Put("outline", v.FullOutlineMarked)

	if v.PreviousSubmodule != nil {
		vars.Put("previous_submodule", *v.PreviousSubmodule)
	} else {
		vars.Put("previous_submodule", "none")
	}
	if v.NextSubmodule != nil {
		vars.Put("next_submodule", *v.NextSubmodule)
	} else {
		vars.Put("next_submodule", "none")
	}
	return vars
}
