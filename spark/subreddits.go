package spark

// curatedSubreddits is the default pool of communities scanned when a
// campaign supplies no subreddit hints. Grouped loosely by topic; the
// scanner shuffles the pool on every run so order here carries no weight.
var curatedSubreddits = []string{
	// startups and business
	"startups", "Entrepreneur", "smallbusiness", "SaaS", "sidehustle",
	"startup", "EntrepreneurRideAlong", "sweatystartup", "Business_Ideas",
	"growmybusiness", "advancedentrepreneur", "indiebiz",

	// marketing and growth
	"marketing", "digital_marketing", "SEO", "content_marketing",
	"PPC", "GrowthHacking", "socialmedia", "emailmarketing",
	"AskMarketing", "Affiliatemarketing", "bigseo", "copywriting",
	"advertising", "ecommerce", "dropship", "FulfillmentByAmazon",
	"shopify", "Etsy", "AmazonSeller",

	// software and development
	"webdev", "programming", "learnprogramming", "web_design",
	"javascript", "reactjs", "node", "golang", "Python", "rust",
	"devops", "aws", "selfhosted", "sysadmin", "dataengineering",
	"datascience", "MachineLearning", "artificial", "ChatGPT",
	"OpenAI", "LocalLLaMA", "nocode", "lowcode", "Wordpress",
	"webflow", "Supabase", "Firebase", "FlutterDev", "reactnative",
	"iOSProgramming", "androiddev", "gamedev", "unrealengine", "Unity3D",

	// freelancing and work
	"freelance", "Upwork", "WorkOnline", "remotework", "digitalnomad",
	"forhire", "HireanArtist", "DesignJobs", "jobs", "careerguidance",
	"cscareerquestions", "ITCareerQuestions", "resumes", "interviews",

	// design and creative
	"graphic_design", "Design", "UI_Design", "UXDesign", "userexperience",
	"logodesign", "typography", "photography", "videography",
	"VideoEditing", "editors", "blender", "AdobeIllustrator", "photoshop",

	// finance and money
	"personalfinance", "investing", "stocks", "financialindependence",
	"Bogleheads", "CreditCards", "tax", "Accounting", "smallbusinessuk",
	"realestateinvesting", "RealEstate", "landlord", "CommercialRealEstate",

	// productivity and tools
	"productivity", "Notion", "ObsidianMD", "todoist", "gsuite",
	"excel", "sheets", "Airtable", "zapier", "automation",

	// audiences and lifestyle
	"Fitness", "loseit", "running", "yoga", "nutrition", "Cooking",
	"MealPrepSunday", "EatCheapAndHealthy", "skincareaddiction",
	"malefashionadvice", "femalefashionadvice", "frugalmalefashion",
	"BuyItForLife", "Frugal", "minimalism", "declutter",

	// home and family
	"HomeImprovement", "DIY", "woodworking", "gardening", "landscaping",
	"Parenting", "NewParents", "pregnant", "dogs", "cats", "puppy101",

	// education and self improvement
	"GetStudying", "college", "GradSchool", "languagelearning",
	"selfimprovement", "getdisciplined", "DecidingToBeBetter",

	// travel and events
	"travel", "solotravel", "TravelHacks", "weddingplanning",
	"Weddingsunder10k", "EventProduction",

	// tech support style communities
	"techsupport", "buildapc", "pcmasterrace", "homelab", "HomeNetworking",
	"smarthome", "hometheater", "headphones",

	// asking and recommendation hubs
	"AskReddit", "NoStupidQuestions", "answers", "findareddit",
	"HelpMeFind", "whatisthisthing", "tipofmytongue", "suggestapp",
	"software", "AlternativeTo",
}

// CuratedSubreddits returns a copy of the default subreddit pool.
func CuratedSubreddits() []string {
	out := make([]string, len(curatedSubreddits))
	copy(out, curatedSubreddits)
	return out
}
