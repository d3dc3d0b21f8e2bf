package questionbank

import "github.com/abhisek/englevel/internal/cefr"

func mc(id string, level cefr.Level, category, topic, prompt, answer string, options ...string) Question {
	return Question{
		ID:            id,
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: answer,
		Level:         level,
		Category:      category,
		Topic:         topic,
	}
}

// seedQuestions is the built-in bank: 39 questions over 38 grammar topics.
var seedQuestions = []Question{
	// --- A1 (7) ---
	mc("a1-be-01", cefr.A1, "verbs", "be-present",
		"I ___ a student.", "am", "am", "is", "are", "be"),
	mc("a1-art-01", cefr.A1, "articles", "indefinite-articles",
		"She has ___ apple in her bag.", "an", "a", "an", "the", "some"),
	mc("a1-plu-01", cefr.A1, "nouns", "regular-plurals",
		"There are two ___ on the table.", "boxes", "box", "boxs", "boxes", "boxies"),
	mc("a1-pos-01", cefr.A1, "pronouns", "possessive-adjectives",
		"This is ___ book. It belongs to me.", "my", "my", "me", "I", "mine"),
	mc("a1-prs-01", cefr.A1, "tenses", "present-simple-third-person",
		"He ___ football every Saturday.", "plays", "play", "plays", "playing", "is play"),
	mc("a1-the-01", cefr.A1, "sentence-structure", "there-is-there-are",
		"___ a cat in the garden.", "There is", "There is", "There are", "It is", "Is"),
	mc("a1-pre-01", cefr.A1, "prepositions", "prepositions-of-time",
		"My birthday is ___ May.", "in", "in", "on", "at", "by"),

	// --- A2 (7) ---
	mc("a2-pst-01", cefr.A2, "tenses", "past-simple-irregular",
		"Yesterday we ___ to the cinema.", "went", "go", "went", "gone", "goes"),
	mc("a2-cmp-01", cefr.A2, "adjectives", "comparatives",
		"My brother is ___ than me.", "taller", "tall", "taller", "tallest", "more tall"),
	mc("a2-fut-01", cefr.A2, "future", "going-to-future",
		"Look at those clouds! It ___ rain.", "is going to", "is going to", "goes to", "will to", "going"),
	mc("a2-qua-01", cefr.A2, "quantifiers", "much-many",
		"How ___ sugar do you want?", "much", "many", "much", "few", "lot"),
	mc("a2-prc-01", cefr.A2, "tenses", "present-continuous",
		"Be quiet! The baby ___.", "is sleeping", "sleeps", "is sleeping", "sleep", "slept"),
	mc("a2-obj-01", cefr.A2, "pronouns", "object-pronouns",
		"Can you help ___? I'm lost.", "me", "I", "me", "my", "mine"),
	mc("a2-ppe-01", cefr.A2, "tenses", "present-perfect-experience",
		"Have you ___ been to Spain?", "ever", "ever", "never", "yet", "already"),

	// --- B1 (7) ---
	mc("b1-ppe-01", cefr.B1, "tenses", "present-perfect-experience",
		"Have you ever ___ sushi?", "eaten", "eat", "ate", "eaten", "eating"),
	mc("b1-cnd-01", cefr.B1, "conditionals", "first-conditional",
		"If it rains tomorrow, we ___ at home.", "will stay", "stay", "will stay", "would stay", "stayed"),
	mc("b1-pas-01", cefr.B1, "voice", "passive-present-simple",
		"English ___ in many countries.", "is spoken", "speaks", "is spoken", "is speaking", "spoke"),
	mc("b1-rel-01", cefr.B1, "clauses", "defining-relative-clauses",
		"The man ___ lives next door is a doctor.", "who", "who", "which", "whose", "whom"),
	mc("b1-use-01", cefr.B1, "tenses", "used-to",
		"I ___ play tennis when I was young, but now I don't.", "used to", "use to", "used to", "am used to", "was used"),
	mc("b1-mod-01", cefr.B1, "modals", "modals-of-obligation",
		"You ___ wear a seatbelt. It's the law.", "must", "must", "might", "could", "would"),
	mc("b1-ger-01", cefr.B1, "verb-patterns", "gerund-after-verbs",
		"I enjoy ___ in the mountains.", "walking", "to walk", "walking", "walk", "walked"),

	// --- B2 (6) ---
	mc("b2-cnd-01", cefr.B2, "conditionals", "second-conditional",
		"If I ___ more time, I would learn Japanese.", "had", "have", "had", "would have", "will have"),
	mc("b2-rep-01", cefr.B2, "reported-speech", "reported-statements",
		"She said that she ___ tired.", "was", "is", "was", "has been", "will be"),
	mc("b2-ppf-01", cefr.B2, "tenses", "past-perfect",
		"By the time we arrived, the film ___.", "had already started",
		"already started", "had already started", "has already started", "was already starting"),
	mc("b2-pas-01", cefr.B2, "voice", "modal-passive",
		"The report ___ by Friday.", "must be finished",
		"must finish", "must be finished", "must finished", "must be finishing"),
	mc("b2-wis-01", cefr.B2, "conditionals", "wish-present",
		"I wish I ___ how to swim.", "knew", "know", "knew", "have known", "will know"),
	mc("b2-rel-01", cefr.B2, "clauses", "non-defining-relative-clauses",
		"My sister, ___ lives in Paris, is a chef.", "who", "that", "who", "which", "whose"),

	// --- C1 (6) ---
	mc("c1-inv-01", cefr.C1, "sentence-structure", "negative-inversion",
		"Never ___ such a beautiful sunset.", "have I seen", "I have seen", "have I seen", "I saw", "did I saw"),
	mc("c1-cnd-01", cefr.C1, "conditionals", "third-conditional",
		"If she ___ harder, she would have passed.", "had studied",
		"studied", "had studied", "would study", "has studied"),
	mc("c1-clf-01", cefr.C1, "sentence-structure", "cleft-sentences",
		"___ I need is a long holiday.", "What", "That", "What", "Which", "It"),
	mc("c1-ded-01", cefr.C1, "modals", "modals-of-deduction-past",
		"He ___ the message; he hasn't replied.", "can't have received",
		"mustn't receive", "can't have received", "couldn't receive", "shouldn't have received"),
	mc("c1-par-01", cefr.C1, "clauses", "participle-clauses",
		"___ the work, she went home.", "Having finished",
		"Having finished", "Finished", "Have finished", "To finishing"),
	mc("c1-fpf-01", cefr.C1, "tenses", "future-perfect",
		"By next June, I ___ here for ten years.", "will have worked",
		"will work", "will have worked", "am working", "have worked"),

	// --- C2 (6) ---
	mc("c2-sbj-01", cefr.C2, "mood", "mandative-subjunctive",
		"The committee insisted that he ___ immediately.", "resign", "resigns", "resign", "resigned", "will resign"),
	mc("c2-mix-01", cefr.C2, "conditionals", "mixed-conditionals",
		"If I had taken that job, I ___ in London now.", "would be living",
		"would live", "would be living", "will live", "had lived"),
	mc("c2-civ-01", cefr.C2, "conditionals", "conditional-inversion",
		"___ you require assistance, please contact reception.", "Should", "Should", "Would", "If", "Were"),
	mc("c2-frn-01", cefr.C2, "sentence-structure", "fronting-inversion",
		"Gone ___ the days when letters took weeks to arrive.", "are", "is", "are", "were", "have"),
	mc("c2-hrd-01", cefr.C2, "sentence-structure", "hardly-when-inversion",
		"Hardly ___ the house when it started to rain.", "had I left",
		"had I left", "I had left", "did I leave", "I left"),
	{
		ID:            "c2-unr-01",
		Prompt:        "Complete with one word: It's high time we ___ (leave).",
		CorrectAnswer: "left",
		Level:         cefr.C2,
		Category:      "mood",
		Topic:         "unreal-past-high-time",
		Explanation:   "'It's high time' is followed by the past simple with present meaning.",
	},
}

// SeedQuestions returns a copy of the built-in question set.
func SeedQuestions() []Question {
	out := make([]Question, len(seedQuestions))
	for i, q := range seedQuestions {
		q.Options = append([]string(nil), q.Options...)
		if len(q.Options) == 0 {
			q.Options = nil
		}
		out[i] = q
	}
	return out
}

// Seed returns a bank over the built-in questions.
func Seed() *Bank {
	return NewBank(SeedQuestions())
}
