package service

import "fedlearn.dev/dashboard/internal/modules/pages/dto"

const loadModelExample = `import json
import numpy as np
from tensorflow.keras.models import model_from_json

with open('global_model.json', 'r') as f:
    model_data = json.load(f)

model = model_from_json(model_data['architecture'])
model.set_weights([np.array(w) for w in model_data['weights']])
print("Model loaded successfully!")`

const saveModelExample = `import json

model_data = {
    "weights": [w.tolist() for w in model.get_weights()],
    "architecture": model.to_json(),
}

with open('my_model.json', 'w') as f:
    json.dump(model_data, f)
print("Model saved as my_model.json!")`

var guideTabs = []dto.GuideTab{
	{
		ID:   "overview",
		Name: "Overview",
		Sections: []dto.GuideSection{
			{Heading: "As a Member", Items: []string{
				"Download and use global models",
				"Rate and comment on models",
				"Receive update notifications",
				"Access performance metrics",
			}},
			{Heading: "As a Researcher", Items: []string{
				"All Member features",
				"Upload model contributions",
				"Track contribution status",
				"Earn contribution points",
			}},
			{Heading: "As an Admin", Items: []string{
				"Manage users and roles",
				"Review contributions",
				"Publish global models",
				"Moderate community content",
			}},
		},
	},
	{
		ID:   "download",
		Name: "Using Models",
		Sections: []dto.GuideSection{
			{Heading: "Quick Start Guide", Items: []string{
				`Navigate to the "Global Models" section`,
				`Choose a model version and click "Download"`,
				"Use the provided Python code to load the model",
				"Start making predictions on your data",
			}},
			{Heading: "Important Notes", Items: []string{
				"Ensure you have TensorFlow installed",
				"Check model version compatibility",
				"Review performance metrics before use",
				"Share your experience through ratings and comments",
			}},
		},
	},
	{
		ID:   "contribute",
		Name: "Contributing",
		Sections: []dto.GuideSection{
			{Heading: "Contribution Process", Items: []string{
				"Train your model on approved datasets",
				"Export weights in the required JSON format",
				"Upload through the contribution interface",
				"Wait for admin review and approval",
				"Earn points for accepted contributions",
			}},
			{Heading: "Best Practices", Items: []string{
				"Ensure model architecture compatibility",
				"Document your training process",
				"Test thoroughly before submission",
				"Follow the contribution guidelines",
			}},
		},
	},
	{
		ID:   "code",
		Name: "Code Examples",
		Examples: []dto.CodeExample{
			{Title: "Loading a Model", Code: loadModelExample},
			{Title: "Saving Your Model for Contribution", Code: saveModelExample},
		},
	},
}

// Guide returns the platform guide tabs.
func Guide() []dto.GuideTab {
	out := make([]dto.GuideTab, len(guideTabs))
	copy(out, guideTabs)
	return out
}
