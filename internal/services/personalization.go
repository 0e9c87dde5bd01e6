package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/cognisync-backend/internal/types"
)

// PersonalizationService composes the tutoring system prompt from the
// learner's current profile, detected emotion and concept graph. All tier
// boundaries work on the [0,100] presentation scale.
type PersonalizationService struct {
	researchMode bool
	language     string
}

type PersonalizationOptions struct {
	// ResearchMode switches the tutor to a Socratic register: guiding
	// questions instead of direct answers.
	ResearchMode bool
	// Language selects the prompt language, "en" or "zh".
	Language string
}

func NewPersonalizationService(opts PersonalizationOptions) *PersonalizationService {
	lang := opts.Language
	if lang != "zh" {
		lang = "en"
	}
	return &PersonalizationService{researchMode: opts.ResearchMode, language: lang}
}

// CognitionTier maps the cognition axis onto an explanation strategy.
func CognitionTier(value int) string {
	switch {
	case value <= 30:
		return "foundational"
	case value <= 60:
		return "developing"
	case value <= 80:
		return "proficient"
	default:
		return "advanced"
	}
}

// AffectTier maps the affect axis onto an emotional-support strategy.
func AffectTier(value int) string {
	switch {
	case value <= 30:
		return "discouraged"
	case value <= 60:
		return "wavering"
	case value <= 80:
		return "engaged"
	default:
		return "thriving"
	}
}

// BehaviorTier maps the behavior axis onto an activation strategy.
func BehaviorTier(value int) string {
	switch {
	case value <= 30:
		return "passive"
	case value <= 60:
		return "responsive"
	case value <= 80:
		return "active"
	default:
		return "self-directed"
	}
}

var cognitionGuidance = map[string]map[string]string{
	"en": {
		"foundational": "Use simple language, concrete everyday analogies, and break every idea into small steps. Avoid jargon.",
		"developing":   "Explain with moderate depth. Introduce technical terms but define each one when it first appears.",
		"proficient":   "Use precise technical language. Connect new ideas to concepts the learner already knows.",
		"advanced":     "Engage at an expert level: edge cases, trade-offs, and open problems are welcome.",
	},
	"zh": {
		"foundational": "使用简单的语言和贴近生活的类比，把每个概念拆成小步骤讲解，避免术语。",
		"developing":   "用适中的深度讲解，可以引入术语，但首次出现时要给出定义。",
		"proficient":   "使用准确的技术语言，把新知识与学习者已掌握的概念联系起来。",
		"advanced":     "以专家水平交流，可以讨论边界情况、权衡取舍和开放性问题。",
	},
}

var affectGuidance = map[string]map[string]string{
	"en": {
		"discouraged": "Be warm and reassuring. Acknowledge difficulty, celebrate small wins, and never pile on extra challenges.",
		"wavering":    "Offer steady encouragement and point out the progress the learner has already made.",
		"engaged":     "Maintain a positive, collaborative tone.",
		"thriving":    "Match the learner's enthusiasm and feel free to raise the bar.",
	},
	"zh": {
		"discouraged": "语气要温暖、安抚。承认内容确实有难度，肯定每一点小进步，不要再加码。",
		"wavering":    "持续给予鼓励，指出学习者已经取得的进展。",
		"engaged":     "保持积极、协作的语气。",
		"thriving":    "呼应学习者的热情，可以适当提高难度。",
	},
}

var behaviorGuidance = map[string]map[string]string{
	"en": {
		"passive":       "End each reply with one small, concrete action the learner can take right now.",
		"responsive":    "Suggest a short practice exercise related to the topic.",
		"active":        "Propose a hands-on project or experiment that extends the discussion.",
		"self-directed": "Point to deeper resources and let the learner drive the direction.",
	},
	"zh": {
		"passive":       "每次回复结尾给出一个学习者现在就能做的小行动。",
		"responsive":    "建议一个与主题相关的小练习。",
		"active":        "提出一个能延伸讨论的动手项目或实验。",
		"self-directed": "推荐更深入的资料，让学习者自己主导方向。",
	},
}

var emotionTone = map[string]map[string]string{
	"en": {
		"confused":   "The learner sounds confused right now: slow down and re-explain before moving forward.",
		"frustrated": "The learner sounds frustrated: acknowledge the frustration before anything else.",
		"anxious":    "The learner sounds anxious: be calm and lower the stakes.",
		"curious":    "The learner is curious: feed that curiosity with an interesting angle.",
		"excited":    "The learner is excited: keep the energy up.",
		"confident":  "The learner is confident: it is safe to challenge them a little.",
		"motivated":  "The learner is motivated: channel the momentum into a concrete next step.",
		"satisfied":  "The learner is satisfied: consolidate what was just learned.",
		"thoughtful": "The learner is reflecting: give them room to think out loud.",
	},
	"zh": {
		"confused":   "学习者现在有些困惑：放慢节奏，换一种方式再讲一遍，然后再继续。",
		"frustrated": "学习者有些沮丧：先回应这份情绪，再谈内容。",
		"anxious":    "学习者有些焦虑：保持平和，降低压力。",
		"curious":    "学习者很好奇：用一个有趣的角度满足这份好奇心。",
		"excited":    "学习者很兴奋：保持这股劲头。",
		"confident":  "学习者很自信：可以适度提出挑战。",
		"motivated":  "学习者动力十足：把这股动力引导到具体的下一步。",
		"satisfied":  "学习者比较满意：帮助巩固刚学到的内容。",
		"thoughtful": "学习者在反思：给他们空间把想法说出来。",
	},
}

// BuildSystemPrompt assembles the full tutoring prompt. Concepts are ranked
// by frequency and only the top five are named.
func (s *PersonalizationService) BuildSystemPrompt(profile types.Profile, emotion string, graph types.GraphData) string {
	lang := s.language
	var sb strings.Builder

	if lang == "zh" {
		sb.WriteString("你是一位耐心的一对一导师，请用中文回复。\n\n")
	} else {
		sb.WriteString("You are a patient one-on-one tutor. Reply in English.\n\n")
	}

	if s.researchMode {
		if lang == "zh" {
			sb.WriteString("采用苏格拉底式教学：不要直接给出答案，用引导性的问题帮助学习者自己得出结论。\n\n")
		} else {
			sb.WriteString("Teach Socratically: do not hand over answers directly; use guiding questions so the learner reaches conclusions on their own.\n\n")
		}
	} else {
		if lang == "zh" {
			sb.WriteString("直接、清晰地回答学习者的问题，并在合适的时候补充背景。\n\n")
		} else {
			sb.WriteString("Answer the learner's questions directly and clearly, adding context where it helps.\n\n")
		}
	}

	sb.WriteString(cognitionGuidance[lang][CognitionTier(profile.Cognition)])
	sb.WriteString("\n")
	sb.WriteString(affectGuidance[lang][AffectTier(profile.Affect)])
	sb.WriteString("\n")
	sb.WriteString(behaviorGuidance[lang][BehaviorTier(profile.Behavior)])
	sb.WriteString("\n")

	if tone, ok := emotionTone[lang][emotion]; ok {
		sb.WriteString(tone)
		sb.WriteString("\n")
	}

	if names := topConcepts(graph, 5); len(names) > 0 {
		if lang == "zh" {
			sb.WriteString(fmt.Sprintf("\n学习者最近接触的概念：%s。可以在讲解时联系这些概念。\n", strings.Join(names, "、")))
		} else {
			sb.WriteString(fmt.Sprintf("\nConcepts the learner has recently worked with: %s. Connect your explanations to them where natural.\n", strings.Join(names, ", ")))
		}
	}

	return sb.String()
}

func topConcepts(graph types.GraphData, limit int) []string {
	nodes := make([]types.GraphNode, len(graph.Nodes))
	copy(nodes, graph.Nodes)
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Frequency > nodes[j].Frequency
	})
	if len(nodes) > limit {
		nodes = nodes[:limit]
	}
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	return names
}
